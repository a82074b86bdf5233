// Package store declares the narrow interface the engine uses to
// reach the persistent message store, an external collaborator this
// module never implements itself.
package store

import (
	"time"

	"github.com/nuntium/mmsengine/mms"
)

// ReceiveState is reported to the Handler as an incoming message moves
// through retrieval and decoding.
type ReceiveState int

const (
	Receiving ReceiveState = iota
	Decoding
	Rejected
	Deferred
	DownloadError
	DecodingError
)

func (s ReceiveState) String() string {
	switch s {
	case Receiving:
		return "Receiving"
	case Decoding:
		return "Decoding"
	case Rejected:
		return "Rejected"
	case Deferred:
		return "Deferred"
	case DownloadError:
		return "DownloadError"
	case DecodingError:
		return "DecodingError"
	default:
		return "Unknown"
	}
}

// SendState is reported to the Handler as an outgoing message moves
// through encoding and sending.
type SendState int

const (
	Encoding SendState = iota
	Sending
	Sent
	Refused
	SendError
	TooBig
)

func (s SendState) String() string {
	switch s {
	case Encoding:
		return "Encoding"
	case Sending:
		return "Sending"
	case Sent:
		return "Sent"
	case Refused:
		return "Refused"
	case SendError:
		return "SendError"
	case TooBig:
		return "TooBig"
	default:
		return "Unknown"
	}
}

// ReportStatus is the outcome of a delivery or read report, as seen
// by the Handler.
type ReportStatus int

const (
	ReportExpired ReportStatus = iota
	ReportRetrieved
	ReportRejected
	ReportDeferred
	ReportUnrecognised
	ReportForwarded
	ReportUnreachable
	ReportIndeterminate
	ReportUnknown
	ReportRead
	ReportDeleted
	ReportInvalid
	ReportOK
)

func (s ReportStatus) String() string {
	switch s {
	case ReportExpired:
		return "Expired"
	case ReportRetrieved:
		return "Retrieved"
	case ReportRejected:
		return "Rejected"
	case ReportDeferred:
		return "Deferred"
	case ReportUnrecognised:
		return "Unrecognised"
	case ReportForwarded:
		return "Forwarded"
	case ReportUnreachable:
		return "Unreachable"
	case ReportIndeterminate:
		return "Indeterminate"
	case ReportRead:
		return "Read"
	case ReportDeleted:
		return "Deleted"
	case ReportInvalid:
		return "Invalid"
	case ReportOK:
		return "OK"
	default:
		return "Unknown"
	}
}

// Handler is the persistent message store. message_notify asks the
// store to allocate a record for an incoming notification: a non-empty
// id means accept and retrieve now, an empty id means defer, and an
// error means the notification should be rejected (subject to the
// notification task's own retry/deadline handling).
type Handler interface {
	MessageNotify(imsi, from, subject string, expiry time.Time, pushBytes []byte) (id string, err error)
	MessageReceived(msg *mms.Message) error
	MessageReceiveStateChanged(id string, state ReceiveState)
	MessageSendStateChanged(id string, state SendState, details string)
	MessageSent(id, msgid string)
	DeliveryReport(imsi, msgid, recipient string, status ReportStatus)
	ReadReport(imsi, msgid, recipient string, status ReportStatus)

	// Busy reports whether the store has pending work. The dispatcher's
	// idle-shutdown check does not consult it.
	Busy() bool
}
