package mms

import "time"

// Message is the decoded, in-memory representation of an MMS message
// body, independent of how it was transported (Send.req, Retrieve.conf
// or Forward.req all decode into one of these).
type Message struct {
	MessageID          string
	TransactionID      string
	From               From
	To                 []string
	Cc                 []string
	Bcc                []string
	Subject            string
	Class              MessageClass
	ClassName          string // set instead of Class for a non-standard token
	Priority           Priority
	Date               time.Time
	DeliveryReport     bool
	ReadReportRequested bool
	Expiry             *Expiry
	Parts              []Part
}

// SMILPart returns the message's SMIL presentation part, if any.
func (m Message) SMILPart() (Part, bool) {
	for _, p := range m.Parts {
		if p.ContentType.Full() == SMILContentType {
			return p, true
		}
	}
	return Part{}, false
}
