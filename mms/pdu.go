package mms

import "time"

// PDU is the wire-level representation of one MMS protocol data unit:
// a message-type tag, the shared MMS-Version/Transaction-Id envelope,
// and a type-specific payload. Exactly one of the embedded payload
// pointers is non-nil, selected by Type.
type PDU struct {
	Type          MessageType
	Version       byte // packed major.minor, see wsp.Version
	TransactionID string

	SendReq        *SendReq
	SendConf       *SendConf
	NotificationInd *NotificationInd
	NotifyRespInd  *NotifyRespInd
	RetrieveConf   *RetrieveConf
	AcknowledgeInd *AcknowledgeInd
	DeliveryInd    *DeliveryInd
	ReadRecInd     *ReadRecInd
	ReadOrigInd    *ReadOrigInd
}

// SendReq is the M-Send.req payload: a message on its way to the MMSC.
type SendReq struct {
	From           From
	To             []string
	Cc             []string
	Bcc            []string
	Subject        string
	Class          MessageClass
	Priority       Priority
	Expiry         *Expiry
	DeliveryReport Boolean
	ReadReport     Boolean
	Date           time.Time
	ContentType    ContentType
	Parts          []Part
}

// SendConf is the M-Send.conf reply: the MMSC's acceptance decision.
type SendConf struct {
	ResponseStatus ResponseStatus
	ResponseText   string
	MessageID      string
}

// NotificationInd is the M-Notification.ind push payload announcing a
// message waiting at the MMSC.
type NotificationInd struct {
	From           From
	Subject        string
	MessageClass   MessageClass
	MessageSize    uint64
	Expiry         *Expiry
	ContentLocation string
}

// NotifyRespInd is the M-NotifyResp.ind sent back to acknowledge
// receipt of a notification without retrieving the message.
type NotifyRespInd struct {
	Status        DeliveryStatus
	ReportAllowed Boolean
}

// RetrieveConf is the M-Retrieve.conf payload: the retrieved message.
type RetrieveConf struct {
	RetrieveStatus RetrieveStatus
	RetrieveText   string
	MessageID      string
	From           From
	To             []string
	Cc             []string
	Subject        string
	Priority       Priority
	Date           time.Time
	ContentType    ContentType
	Parts          []Part
}

// AcknowledgeInd is the M-Acknowledge.ind sent to confirm retrieval.
type AcknowledgeInd struct {
	ReportAllowed Boolean
}

// DeliveryInd reports the final delivery outcome of a sent message.
type DeliveryInd struct {
	MessageID string
	To        []string
	Date      time.Time
	Status    DeliveryStatus
}

// ReadRecInd is the M-Read-Rec.ind we generate to report that a
// retrieved message was read or deleted.
type ReadRecInd struct {
	MessageID string
	To        []string
	From      string
	Date      time.Time
	ReadStatus ReadStatus
}

// ReadOrigInd is the M-Read-Orig.ind the MMSC sends when the original
// sender's message has been read or deleted by a recipient.
type ReadOrigInd struct {
	MessageID  string
	To         []string
	From       string
	Date       time.Time
	ReadStatus ReadStatus
}
