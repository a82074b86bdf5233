package task

import (
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/mmserr"
	"github.com/nuntium/mmsengine/store"
)

// Notification decodes an incoming push datagram and drives the
// Handler's accept/defer/reject decision, grounded on
// mms_task_notification.c's three-PDU-type dispatch.
type Notification struct {
	Base

	log     logger.Logger
	handler store.Handler
	pdu     *mms.PDU
	rawPush []byte

	atticEnabled bool
	atticPath    func(pdu *mms.PDU) string
	allowDR      bool
}

// NewNotification decodes data (after any push-envelope stripping) and
// returns a task ready to Run, or an mmserr.Invalid error for a
// malformed PDU the caller should attic and drop. allowDR is the
// receiving SIM's delivery-report preference, read from its settings
// before the message's own id is known.
func NewNotification(base Base, log logger.Logger, handler store.Handler, data []byte, atticEnabled, allowDR bool) (*Notification, error) {
	body, err := mms.StripPushEnvelope(data)
	if err != nil {
		return nil, err // already classified by mms.decodeError
	}
	pdu, err := mms.Decode(body)
	if err != nil {
		return nil, err // already classified by mms.decodeError
	}
	if log == nil {
		log = logger.Nop
	}
	return &Notification{
		Base:         base,
		log:          log.With("notification"),
		handler:      handler,
		pdu:          pdu,
		rawPush:      data,
		atticEnabled: atticEnabled,
		allowDR:      allowDR,
	}, nil
}

// Run dispatches on the decoded PDU's message type.
func (n *Notification) Run() {
	switch n.pdu.Type {
	case mms.MessageTypeNotificationInd:
		n.runNotificationInd()
	case mms.MessageTypeDeliveryInd:
		n.runDeliveryInd()
	case mms.MessageTypeReadOrigInd:
		n.runReadOrigInd()
	default:
		n.log.Warn("unrecognised push message-type 0x%02x", byte(n.pdu.Type))
		n.GoDone()
	}
}

func (n *Notification) runNotificationInd() {
	ind := n.pdu.NotificationInd
	expiry := n.resolveExpiry(ind.Expiry)
	n.SetDeadline(expiry)

	id, err := n.handler.MessageNotify(n.IMSI(), ind.From.Address, ind.Subject, expiry, n.rawPush)
	switch {
	case err != nil:
		n.log.Warn("message_notify failed: %v", err)
		now := time.Now()
		if mmserr.Retryable(err) && now.Before(n.Deadline()) {
			n.Retry(now)
			return
		}
		n.queueNotifyResp(mms.DeliveryRejected)
		n.GoDone()
	case id == "":
		n.handler.MessageReceiveStateChanged(n.ID(), store.Deferred)
		n.GoDone()
	default:
		n.SetID(id)
		n.handler.MessageReceiveStateChanged(id, store.Receiving)
		retrieve := NewRetrieve(NewBase("retrieve", n.IMSI(), PriorityNormal, expiry, n.retryInterval(), n.delegateOrNil()), n.log, n.handler, id, ind.ContentLocation, n.atticEnabled, n.allowDR)
		retrieve.SetID(id)
		n.Queue(retrieve)
		n.GoDone()
	}
}

func (n *Notification) runDeliveryInd() {
	ind := n.pdu.DeliveryInd
	status := deliveryReportStatus(ind.Status)
	for _, to := range ind.To {
		n.handler.DeliveryReport(n.IMSI(), ind.MessageID, to, status)
	}
	n.GoDone()
}

func (n *Notification) runReadOrigInd() {
	ind := n.pdu.ReadOrigInd
	status := readReportStatus(ind.ReadStatus)
	for _, to := range ind.To {
		n.handler.ReadReport(n.IMSI(), ind.MessageID, to, status)
	}
	n.GoDone()
}

func (n *Notification) resolveExpiry(e *mms.Expiry) time.Time {
	now := time.Now()
	if e == nil {
		return now.Add(DefaultMaxLifetime)
	}
	if e.Absolute {
		return time.Unix(e.At, 0)
	}
	return now.Add(time.Duration(e.DeltaSec) * time.Second)
}

func (n *Notification) retryInterval() time.Duration { return 5 * time.Second }

// queueNotifyResp schedules an M-NotifyResp.ind reporting status back
// to the MMSC. The task directory doubles as the ephemeral task id
// before a Handler-allocated id exists.
func (n *Notification) queueNotifyResp(status mms.DeliveryStatus) {
	resp := NewNotifyResp(NewBase("notifyresp", n.IMSI(), PriorityPostProcess, time.Now().Add(DefaultMaxLifetime), 5*time.Second, n.delegateOrNil()), n.log, n.ID(), n.pdu.TransactionID, status)
	n.Queue(resp)
}

func (n *Notification) delegateOrNil() Delegate { return n.delegateField() }

// delegateField exposes Base's unexported delegate to the file above
// without widening Base's public surface.
func (b *Base) delegateField() Delegate { return b.delegate }

func deliveryReportStatus(s mms.DeliveryStatus) store.ReportStatus {
	switch s {
	case mms.DeliveryExpired:
		return store.ReportExpired
	case mms.DeliveryRetrieved:
		return store.ReportRetrieved
	case mms.DeliveryRejected:
		return store.ReportRejected
	case mms.DeliveryDeferred:
		return store.ReportDeferred
	case mms.DeliveryUnrecognised:
		return store.ReportUnrecognised
	case mms.DeliveryForwarded:
		return store.ReportForwarded
	case mms.DeliveryUnreachable:
		return store.ReportUnreachable
	case mms.DeliveryIndeterminate:
		return store.ReportIndeterminate
	default:
		return store.ReportUnknown
	}
}

func readReportStatus(s mms.ReadStatus) store.ReportStatus {
	switch s {
	case mms.ReadStatusRead:
		return store.ReportRead
	case mms.ReadStatusDeleted:
		return store.ReportDeleted
	default:
		return store.ReportInvalid
	}
}
