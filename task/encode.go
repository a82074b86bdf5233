package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nuntium/mmsengine/attachment"
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
)

// OutgoingMessage describes a message to send, as handed to the
// Encode task by the caller (Handler-side submission).
type OutgoingMessage struct {
	To, Cc, Bcc      []string
	Subject          string
	Attachments      []attachment.Input
	RequestDelivery  bool
	RequestReadReply bool
	SizeLimit        int64
}

// Encode materialises attachments, synthesises a SMIL part when
// needed, emits m-send.req, and shrinks oversized images until the
// message fits its size limit. Run does all of this synchronously on
// the goroutine that calls it (the dispatcher loop, when queued there);
// no separate worker goroutine is started, so the file and image work
// blocks that loop until Run returns.
type Encode struct {
	Base

	log     logger.Logger
	handler store.Handler
	msgDir  string
	msg     OutgoingMessage
}

// NewEncode builds an Encode task for msg, materialising attachments
// under msgDir.
func NewEncode(base Base, log logger.Logger, handler store.Handler, msgDir string, msg OutgoingMessage) *Encode {
	if log == nil {
		log = logger.Nop
	}
	return &Encode{Base: base, log: log.With("encode"), handler: handler, msgDir: msgDir, msg: msg}
}

func (e *Encode) Run() {
	e.GoWorking()
	e.handler.MessageSendStateChanged(e.ID(), store.Encoding, "")

	if len(e.msg.To) == 0 {
		e.handler.MessageSendStateChanged(e.ID(), store.SendError, "no recipients")
		e.GoDone()
		return
	}

	to := normalizeAddresses(e.msg.To)
	cc := normalizeAddresses(e.msg.Cc)
	bcc := normalizeAddresses(e.msg.Bcc)

	partsDir := filepath.Join(e.msgDir, "parts")
	parts, err := attachment.Materialize(partsDir, e.msg.Attachments)
	if err != nil {
		e.log.Warn("materialize failed: %v", err)
		e.handler.MessageSendStateChanged(e.ID(), store.SendError, err.Error())
		e.GoDone()
		return
	}

	smilCID := "<smil-root>"
	if !attachment.HasSMIL(parts) {
		doc := attachment.SynthesizeSMIL(parts)
		smilPart, err := attachment.WriteSMILPart(partsDir, smilCID, doc)
		if err != nil {
			e.log.Warn("smil synthesis failed: %v", err)
			e.handler.MessageSendStateChanged(e.ID(), store.SendError, err.Error())
			e.GoDone()
			return
		}
		parts = append([]attachment.Prepared{smilPart}, parts...)
	} else {
		for i, p := range parts {
			if p.ContentType.Full() == mms.SMILContentType {
				parts = append([]attachment.Prepared{p}, append(parts[:i:i], parts[i+1:]...)...)
				break
			}
		}
		smilCID = parts[0].ContentID
	}

	reqPath := filepath.Join(e.msgDir, "m-send.req")
	const maxAttempts = 8
	for attempt := 0; attempt < maxAttempts; attempt++ {
		raw, err := e.buildSendReq(smilCID, to, cc, bcc, parts)
		if err != nil {
			e.log.Warn("encode failed: %v", err)
			e.handler.MessageSendStateChanged(e.ID(), store.SendError, err.Error())
			e.GoDone()
			return
		}
		if e.msg.SizeLimit <= 0 || int64(len(raw)) <= e.msg.SizeLimit {
			if err := writeFile(reqPath, raw); err != nil {
				e.handler.MessageSendStateChanged(e.ID(), store.SendError, err.Error())
				e.GoDone()
				return
			}
			e.handler.MessageSendStateChanged(e.ID(), store.Sending, "")
			send := NewSend(NewBase("send", e.IMSI(), PriorityNormal, e.Deadline(), 5*time.Second, e.delegateField()), e.log, e.handler, e.ID(), reqPath)
			e.Queue(send)
			e.GoDone()
			return
		}

		target := attachment.LargestResizable(parts)
		if target < 0 {
			e.handler.MessageSendStateChanged(e.ID(), store.TooBig, (&attachment.MaxSizeExceeded{Limit: e.msg.SizeLimit, Got: int64(len(raw))}).Error())
			e.GoDone()
			return
		}
		if _, err := attachment.Resize(&parts[target]); err != nil {
			e.log.Warn("resize failed, giving up: %v", err)
			e.handler.MessageSendStateChanged(e.ID(), store.TooBig, err.Error())
			e.GoDone()
			return
		}
	}

	e.handler.MessageSendStateChanged(e.ID(), store.TooBig, "no progress after repeated resizing")
	e.GoDone()
}

func (e *Encode) buildSendReq(smilCID string, to, cc, bcc []string, parts []attachment.Prepared) ([]byte, error) {
	mmsParts := make([]mms.Part, 0, len(parts))
	for _, p := range parts {
		data, err := readFile(p.Path)
		if err != nil {
			return nil, err
		}
		mmsParts = append(mmsParts, mms.Part{
			ContentType: p.ContentType,
			ContentID:   p.ContentID,
			Location:    p.Location,
			Data:        data,
		})
	}

	deliveryReport := mms.No
	if e.msg.RequestDelivery {
		deliveryReport = mms.Yes
	}
	readReport := mms.No
	if e.msg.RequestReadReply {
		readReport = mms.Yes
	}

	pdu := &mms.PDU{
		Type: mms.MessageTypeSendReq,
		SendReq: &mms.SendReq{
			To:             to,
			Cc:             cc,
			Bcc:            bcc,
			Subject:        e.msg.Subject,
			Priority:       mms.PriorityNormal,
			DeliveryReport: deliveryReport,
			ReadReport:     readReport,
			Date:           time.Now(),
			ContentType: mms.ContentType{
				Type: "application", Subtype: "vnd.wap.multipart.related",
				Params: map[string]string{"start": smilCID, "type": mms.SMILContentType},
			},
			Parts: mmsParts,
		},
	}
	return mms.Encode(pdu)
}

func normalizeAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !strings.Contains(a, "/") {
			a = a + "/TYPE=PLMN"
		}
		out = append(out, a)
	}
	return out
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("task: reading %s: %w", path, err)
	}
	return data, nil
}
