package task

import (
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
)

// Send POSTs m-send.req and translates the M-Send.conf reply into a
// Handler send-state.
type Send struct {
	*HTTP

	log     logger.Logger
	handler store.Handler
}

// NewSend builds a Send task POSTing the request saved at reqPath.
func NewSend(base Base, log logger.Logger, handler store.Handler, msgID, reqPath string) *Send {
	if log == nil {
		log = logger.Nop
	}
	s := &Send{log: log.With("send"), handler: handler}
	respPath := reqPath + ".conf"
	s.HTTP = NewHTTP(base, log, nil, s, ConnectionAuto, "", reqPath, respPath, "", "")
	s.SetID(msgID)
	return s
}

func (s *Send) HTTPDone(result HTTPResult) {
	if result.Retry {
		return
	}
	if result.Err != nil {
		s.log.Warn("send failed: %v", result.Err)
		s.handler.MessageSendStateChanged(s.ID(), store.SendError, result.Err.Error())
		return
	}

	data, err := readFile(result.BodyPath)
	if err != nil {
		s.handler.MessageSendStateChanged(s.ID(), store.SendError, err.Error())
		return
	}
	pdu, err := mms.Decode(data)
	if err != nil || pdu.SendConf == nil {
		s.handler.MessageSendStateChanged(s.ID(), store.SendError, "malformed m-send.conf")
		return
	}
	conf := pdu.SendConf

	switch {
	case conf.ResponseStatus.IsOK() && conf.MessageID != "":
		s.handler.MessageSent(s.ID(), conf.MessageID)
	case conf.ResponseStatus.IsOK():
		s.handler.MessageSendStateChanged(s.ID(), store.SendError, "mmsc accepted without a message-id")
	case conf.ResponseStatus.IsRefused():
		s.handler.MessageSendStateChanged(s.ID(), store.Refused, conf.ResponseText)
	default:
		s.handler.MessageSendStateChanged(s.ID(), store.SendError, conf.ResponseText)
	}
}
