package task

import (
	"path/filepath"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
)

// NotifyResp builds and POSTs an M-NotifyResp.ind, the response to a
// push notification that will not be followed by a retrieval (the
// Handler rejected it, or allocation failed past its deadline).
type NotifyResp struct {
	*HTTP

	log logger.Logger
}

// NewNotifyResp builds a NotifyResp task for transactionID/status,
// writing the request under msgDir.
func NewNotifyResp(base Base, log logger.Logger, msgDir, transactionID string, status mms.DeliveryStatus) *NotifyResp {
	if log == nil {
		log = logger.Nop
	}
	nr := &NotifyResp{log: log.With("notifyresp")}
	reqPath := filepath.Join(msgDir, "m-notifyresp.ind")
	nr.HTTP = NewHTTP(base, log, nil, nr, ConnectionAuto, "", reqPath, "", "", "")
	if err := nr.writeRequest(reqPath, transactionID, status); err != nil {
		nr.log.Warn("building m-notifyresp.ind: %v", err)
	}
	return nr
}

func (nr *NotifyResp) writeRequest(path, transactionID string, status mms.DeliveryStatus) error {
	pdu := &mms.PDU{
		Type:          mms.MessageTypeNotifyRespInd,
		TransactionID: transactionID,
		NotifyRespInd: &mms.NotifyRespInd{Status: status},
	}
	raw, err := mms.Encode(pdu)
	if err != nil {
		return err
	}
	return writeFile(path, raw)
}

// HTTPDone implements task.HTTPDone; nothing follows a NotifyResp.
func (nr *NotifyResp) HTTPDone(result HTTPResult) {
	if result.Err != nil {
		nr.log.Warn("notifyresp failed: %v", result.Err)
	}
}
