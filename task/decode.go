package task

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
)

// DecodeTask reads a saved M-Retrieve.conf from disk, runs the codec,
// lays the parts out under the message's parts directory, and queues
// Ack and Publish continuations.
type DecodeTask struct {
	Base

	log          logger.Logger
	handler      store.Handler
	msgDir       string
	pduPath      string
	atticEnabled bool
	allowDR      bool
}

// NewDecodeTask builds a Decode task over the PDU saved at pduPath.
func NewDecodeTask(base Base, log logger.Logger, handler store.Handler, msgDir, pduPath string, atticEnabled, allowDR bool) *DecodeTask {
	if log == nil {
		log = logger.Nop
	}
	return &DecodeTask{Base: base, log: log.With("decode"), handler: handler, msgDir: msgDir, pduPath: pduPath, atticEnabled: atticEnabled, allowDR: allowDR}
}

var unsafeFilenameChars = regexp.MustCompile(`[<>\[\]/\\]`)

// Run decodes the retrieved PDU and, on success, writes its parts to
// disk before queuing Ack and Publish tasks. It runs synchronously on
// the dispatcher goroutine: the codec itself does no I/O beyond the
// initial whole-file read.
func (d *DecodeTask) Run() {
	d.GoWorking()
	data, err := os.ReadFile(d.pduPath)
	if err != nil {
		d.log.Warn("reading %s: %v", d.pduPath, err)
		d.handler.MessageReceiveStateChanged(d.ID(), store.DecodingError)
		d.GoDone()
		return
	}

	pdu, err := mms.Decode(data)
	if err != nil {
		d.log.Warn("decoding %s: %v", d.pduPath, err)
		d.handler.MessageReceiveStateChanged(d.ID(), store.DecodingError)
		d.GoDone()
		return
	}
	conf := pdu.RetrieveConf
	if conf == nil {
		d.log.Warn("%s is not a retrieve.conf (type 0x%02x)", d.pduPath, byte(pdu.Type))
		d.handler.MessageReceiveStateChanged(d.ID(), store.DecodingError)
		d.GoDone()
		return
	}
	if conf.RetrieveStatus.IsError() {
		d.log.Warn("mmsc reported retrieve-status 0x%02x: %s", byte(conf.RetrieveStatus), conf.RetrieveText)
		d.handler.MessageReceiveStateChanged(d.ID(), store.DownloadError)
		d.GoDone()
		return
	}

	partsDir := filepath.Join(d.msgDir, "parts")
	if err := os.MkdirAll(partsDir, 0o755); err != nil {
		d.log.Warn("creating %s: %v", partsDir, err)
		d.handler.MessageReceiveStateChanged(d.ID(), store.DecodingError)
		d.GoDone()
		return
	}
	for _, p := range conf.Parts {
		name := unsafeFilenameChars.ReplaceAllString(p.Filename(), "_")
		if name == "" {
			name = "part"
		}
		if err := os.WriteFile(filepath.Join(partsDir, name), p.Data, 0o644); err != nil {
			d.log.Warn("writing part %s: %v", name, err)
		}
	}

	msg := &mms.Message{
		MessageID: conf.MessageID,
		From:      conf.From,
		To:        conf.To,
		Cc:        conf.Cc,
		Subject:   conf.Subject,
		Priority:  conf.Priority,
		Date:      conf.Date,
		Parts:     conf.Parts,
	}

	ack := NewAck(NewBase("ack", d.IMSI(), PriorityPostProcess, time.Now().Add(DefaultMaxLifetime), 5*time.Second, d.delegateField()), d.log, d.msgDir, d.allowDR)
	d.Queue(ack)
	publish := NewPublish(NewBase("publish", d.IMSI(), PriorityPostProcess, time.Now().Add(DefaultMaxLifetime), 5*time.Second, d.delegateField()), d.log, d.handler, msg)
	d.Queue(publish)
	d.GoDone()
}
