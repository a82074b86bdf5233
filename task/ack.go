package task

import (
	"path/filepath"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
)

// Ack builds and POSTs an M-Acknowledge.ind confirming retrieval. It
// runs at post-process priority so it is scheduled after normal work.
type Ack struct {
	*HTTP

	log     logger.Logger
	msgDir  string
	allowDR bool
}

// NewAck builds an Ack task for the message at msgDir. allowDR is the
// sending SIM's delivery-report preference, carried from the
// notification that produced this retrieval.
func NewAck(base Base, log logger.Logger, msgDir string, allowDR bool) *Ack {
	if log == nil {
		log = logger.Nop
	}
	a := &Ack{log: log.With("ack"), msgDir: msgDir, allowDR: allowDR}
	reqPath := filepath.Join(msgDir, "m-acknowledge.ind")
	a.HTTP = NewHTTP(base, log, nil, a, ConnectionAuto, "", reqPath, "", "", "")
	if err := a.writeRequest(reqPath); err != nil {
		a.log.Warn("building m-acknowledge.ind: %v", err)
	}
	return a
}

func (a *Ack) writeRequest(path string) error {
	reportAllowed := mms.No
	if a.allowDR {
		reportAllowed = mms.Yes
	}
	pdu := &mms.PDU{
		Type:           mms.MessageTypeAcknowledgeInd,
		AcknowledgeInd: &mms.AcknowledgeInd{ReportAllowed: reportAllowed},
	}
	raw, err := mms.Encode(pdu)
	if err != nil {
		return err
	}
	return writeFile(path, raw)
}

// HTTPDone implements task.HTTPDone; the acknowledge transmission has
// no further continuation regardless of outcome.
func (a *Ack) HTTPDone(result HTTPResult) {
	if result.Err != nil {
		a.log.Warn("acknowledge failed: %v", result.Err)
	}
}
