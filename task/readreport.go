package task

import (
	"path/filepath"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
)

// ReadReportStatus mirrors mms.ReadStatus for callers outside the mms
// package that trigger a read report from a user action (opening or
// deleting a received message).
type ReadReportStatus = mms.ReadStatus

// ReadReport builds an M-Read-Rec.ind for messageID and POSTs it to the
// MMSC, per spec ambient read-report handling: From is always empty,
// since the report is sent on behalf of the recipient reading the
// message, not replying as a distinct party.
type ReadReport struct {
	*HTTP

	log    logger.Logger
	msgDir string
}

// NewReadReport builds a ReadReport task for messageID/to, recording
// status, writing the request under msgDir.
func NewReadReport(base Base, log logger.Logger, msgDir, messageID, to string, status ReadReportStatus) *ReadReport {
	if log == nil {
		log = logger.Nop
	}
	rr := &ReadReport{log: log.With("readreport"), msgDir: msgDir}
	reqPath := filepath.Join(msgDir, "m-read-rec.ind")
	rr.HTTP = NewHTTP(base, log, nil, rr, ConnectionAuto, "", reqPath, "", "", "")
	if err := rr.writeRequest(reqPath, messageID, to, status); err != nil {
		rr.log.Warn("building m-read-rec.ind: %v", err)
	}
	return rr
}

func (rr *ReadReport) writeRequest(path, messageID, to string, status ReadReportStatus) error {
	pdu := &mms.PDU{
		Type: mms.MessageTypeReadRecInd,
		ReadRecInd: &mms.ReadRecInd{
			MessageID:  messageID,
			To:         []string{to},
			Date:       time.Now(),
			ReadStatus: status,
		},
	}
	raw, err := mms.Encode(pdu)
	if err != nil {
		return err
	}
	return writeFile(path, raw)
}

// HTTPDone implements task.HTTPDone. It only logs a failed POST; a
// failure marked retryable has already been passed to the HTTP base's
// Retry (within the task's deadline) before HTTPDone is called.
func (rr *ReadReport) HTTPDone(result HTTPResult) {
	if result.Err != nil {
		rr.log.Warn("read report failed: %v", result.Err)
	}
}
