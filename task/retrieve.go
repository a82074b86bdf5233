package task

import (
	"path/filepath"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/store"
	"github.com/nuntium/mmsengine/transfer"
)

// Retrieve performs the HTTP GET of a notification's content location
// and, on success, queues a Decode task over the saved body.
type Retrieve struct {
	*HTTP

	log          logger.Logger
	handler      store.Handler
	msgDir       string
	atticEnabled bool
	allowDR      bool
}

// NewRetrieve builds a Retrieve task targeting location, writing the
// downloaded body to <root>/msg/<id>/m-retrieve.conf.
func NewRetrieve(base Base, log logger.Logger, handler store.Handler, msgDir, location string, atticEnabled, allowDR bool) *Retrieve {
	if log == nil {
		log = logger.Nop
	}
	r := &Retrieve{log: log.With("retrieve"), handler: handler, msgDir: msgDir, atticEnabled: atticEnabled, allowDR: allowDR}
	respPath := filepath.Join(msgDir, "m-retrieve.conf")
	r.HTTP = NewHTTP(base, log, nil, r, ConnectionAuto, location, "", respPath, "", "")
	return r
}

// SetTransfers wires a transfer.List for progress reporting, supplied
// after construction since the dispatcher owns it.
func (r *Retrieve) SetTransfers(t transfer.List) { r.HTTP.transfers = t }

// HTTPDone implements task.HTTPDone.
func (r *Retrieve) HTTPDone(result HTTPResult) {
	if result.Retry {
		r.handler.MessageReceiveStateChanged(r.ID(), store.Deferred)
		return
	}
	if result.Err != nil {
		r.log.Warn("retrieve failed: %v", result.Err)
		r.handler.MessageReceiveStateChanged(r.ID(), store.DownloadError)
		return
	}
	r.handler.MessageReceiveStateChanged(r.ID(), store.Decoding)
	decode := NewDecodeTask(NewBase("decode", r.IMSI(), PriorityNormal, r.Deadline(), 5*time.Second, r.delegateField()), r.log, r.handler, r.msgDir, result.BodyPath, r.atticEnabled, r.allowDR)
	r.Queue(decode)
}
