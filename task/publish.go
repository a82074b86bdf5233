package task

import (
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
)

// Publish hands a decoded Message to the Handler for persistence. It
// retries on Handler failure subject to its deadline and runs at
// post-process priority.
type Publish struct {
	Base

	log     logger.Logger
	handler store.Handler
	msg     *mms.Message
}

// NewPublish builds a Publish task delivering msg.
func NewPublish(base Base, log logger.Logger, handler store.Handler, msg *mms.Message) *Publish {
	if log == nil {
		log = logger.Nop
	}
	return &Publish{Base: base, log: log.With("publish"), handler: handler, msg: msg}
}

func (p *Publish) Run() {
	p.GoWorking()
	if err := p.handler.MessageReceived(p.msg); err != nil {
		p.log.Warn("message_received failed for %s: %v", p.msg.MessageID, err)
		p.Retry(time.Now())
		return
	}
	p.GoDone()
}
