package mms

// HeaderID identifies a well-known MMS PDU header (OMA-WAP-MMS-ENC
// table 7-12). A header byte with its high bit set carries one of
// these IDs in its low 7 bits.
type HeaderID byte

// Well-known MMS headers. Values must match OMA-WAP-MMS-ENC exactly;
// field encoders and decoders depend on the literal numbers.
const (
	HeaderBcc                   HeaderID = 0x01
	HeaderCc                    HeaderID = 0x02
	HeaderContentLocation       HeaderID = 0x03
	HeaderContentType           HeaderID = 0x04
	HeaderDate                  HeaderID = 0x05
	HeaderDeliveryReport        HeaderID = 0x06
	HeaderDeliveryTime          HeaderID = 0x07
	HeaderExpiry                HeaderID = 0x08
	HeaderFrom                  HeaderID = 0x09
	HeaderMessageClass          HeaderID = 0x0A
	HeaderMessageID             HeaderID = 0x0B
	HeaderMessageType           HeaderID = 0x0C
	HeaderMMSVersion            HeaderID = 0x0D
	HeaderMessageSize           HeaderID = 0x0E
	HeaderPriority              HeaderID = 0x0F
	HeaderReadReport            HeaderID = 0x10
	HeaderReportAllowed         HeaderID = 0x11
	HeaderResponseStatus        HeaderID = 0x12
	HeaderResponseText          HeaderID = 0x13
	HeaderSenderVisibility      HeaderID = 0x14
	HeaderStatus                HeaderID = 0x15
	HeaderSubject               HeaderID = 0x16
	HeaderTo                    HeaderID = 0x17
	HeaderTransactionID         HeaderID = 0x18
	HeaderRetrieveStatus        HeaderID = 0x19
	HeaderRetrieveText          HeaderID = 0x1A
	HeaderReadStatus            HeaderID = 0x1B
	HeaderReplyCharging         HeaderID = 0x1C
	HeaderReplyChargingDeadline HeaderID = 0x1D
	HeaderReplyChargingID       HeaderID = 0x1E
	HeaderReplyChargingSize     HeaderID = 0x1F
	HeaderPreviouslySentBy      HeaderID = 0x20
	HeaderPreviouslySentDate    HeaderID = 0x21
)

// multiValueHeaders lists the headers that may legally appear more than
// once in a PDU (address lists); every other repeated header keeps
// only its first occurrence, per the codec's tolerant-on-input rule.
var multiValueHeaders = map[HeaderID]bool{
	HeaderBcc: true,
	HeaderCc:  true,
	HeaderTo:  true,
}

// PartHeaderID identifies a well-known per-part header.
type PartHeaderID byte

const (
	PartHeaderContentLocation    PartHeaderID = 0x0E
	PartHeaderContentDisposition PartHeaderID = 0x2E
	PartHeaderContentDisposition2 PartHeaderID = 0x45
	PartHeaderContentID          PartHeaderID = 0x40
)

// MessageType is the value of the Message-Type header.
type MessageType byte

const (
	MessageTypeSendReq        MessageType = 128
	MessageTypeSendConf       MessageType = 129
	MessageTypeNotificationInd MessageType = 130
	MessageTypeNotifyRespInd  MessageType = 131
	MessageTypeRetrieveConf   MessageType = 132
	MessageTypeAcknowledgeInd MessageType = 133
	MessageTypeDeliveryInd    MessageType = 134
	MessageTypeReadRecInd     MessageType = 135
	MessageTypeReadOrigInd    MessageType = 136
	MessageTypeForwardReq     MessageType = 137
	MessageTypeForwardConf    MessageType = 138
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeSendReq:
		return "m-send.req"
	case MessageTypeSendConf:
		return "m-send.conf"
	case MessageTypeNotificationInd:
		return "m-notification.ind"
	case MessageTypeNotifyRespInd:
		return "m-notifyresp.ind"
	case MessageTypeRetrieveConf:
		return "m-retrieve.conf"
	case MessageTypeAcknowledgeInd:
		return "m-acknowledge.ind"
	case MessageTypeDeliveryInd:
		return "m-delivery.ind"
	case MessageTypeReadRecInd:
		return "m-read-rec.ind"
	case MessageTypeReadOrigInd:
		return "m-read-orig.ind"
	case MessageTypeForwardReq:
		return "m-forward.req"
	case MessageTypeForwardConf:
		return "m-forward.conf"
	default:
		return "unknown"
	}
}

// Boolean values used by several headers (Delivery-Report,
// Read-Report, Report-Allowed).
type Boolean byte

const (
	Yes Boolean = 128
	No  Boolean = 129
)

// Priority is the value of the X-Mms-Priority header.
type Priority byte

const (
	PriorityLow    Priority = 128
	PriorityNormal Priority = 129
	PriorityHigh   Priority = 130
)

// MessageClass is the value of the X-Mms-Message-Class header in its
// well-known token form. The decoder reads a single octet, so a class
// sent as token-text is not recognised and the codec never fills in
// Message.ClassName.
type MessageClass byte

const (
	ClassPersonal      MessageClass = 128
	ClassAdvertisement MessageClass = 129
	ClassInformational MessageClass = 130
	ClassAuto          MessageClass = 131
)

// DeliveryStatus is the value of X-Mms-Status in a Delivery.ind.
type DeliveryStatus byte

const (
	DeliveryExpired      DeliveryStatus = 128
	DeliveryRetrieved    DeliveryStatus = 129
	DeliveryRejected     DeliveryStatus = 130
	DeliveryDeferred     DeliveryStatus = 131
	DeliveryUnrecognised DeliveryStatus = 132
	DeliveryForwarded    DeliveryStatus = 134
	DeliveryUnreachable  DeliveryStatus = 135
	DeliveryIndeterminate DeliveryStatus = 133
	DeliveryUnknown      DeliveryStatus = 0
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryExpired:
		return "Expired"
	case DeliveryRetrieved:
		return "Retrieved"
	case DeliveryRejected:
		return "Rejected"
	case DeliveryDeferred:
		return "Deferred"
	case DeliveryUnrecognised:
		return "Unrecognised"
	case DeliveryForwarded:
		return "Forwarded"
	case DeliveryUnreachable:
		return "Unreachable"
	case DeliveryIndeterminate:
		return "Indeterminate"
	default:
		return "Unknown"
	}
}

// ReadStatus is the value of X-Mms-Read-Status in a Read-Orig.ind, and
// the value written into a Read-Rec.ind we generate ourselves.
type ReadStatus byte

const (
	ReadStatusRead    ReadStatus = 128
	ReadStatusDeleted ReadStatus = 129
)

func (s ReadStatus) String() string {
	switch s {
	case ReadStatusRead:
		return "Read"
	case ReadStatusDeleted:
		return "Deleted"
	default:
		return "Invalid"
	}
}

// RetrieveStatus is the value of X-Mms-Retrieve-Status in a
// Retrieve.conf.
type RetrieveStatus byte

const (
	RetrieveStatusOK                      RetrieveStatus = 128
	RetrieveStatusErrTransientFailure     RetrieveStatus = 192
	RetrieveStatusErrTransientMessageNotFound RetrieveStatus = 193
	RetrieveStatusErrTransientNetworkProblem  RetrieveStatus = 194
	RetrieveStatusErrPermanentFailure      RetrieveStatus = 224
	RetrieveStatusErrPermanentServiceDenied RetrieveStatus = 225
	RetrieveStatusErrPermanentMessageNotFound RetrieveStatus = 226
	RetrieveStatusErrPermanentContentUnsupported RetrieveStatus = 227
)

// IsError reports whether s denotes anything other than success.
func (s RetrieveStatus) IsError() bool { return s != 0 && s != RetrieveStatusOK }

// ResponseStatus is the value of X-Mms-Response-Status in a
// Send.conf. Reserved ranges 196-223 and 234-255 collapse to the
// generic transient/permanent-failure codes, per OMA-WAP-MMS-ENC and
// spec §4.1.
type ResponseStatus byte

const (
	ResponseOK                                ResponseStatus = 128
	ResponseErrUnspecified                    ResponseStatus = 129
	ResponseErrServiceDenied                  ResponseStatus = 130
	ResponseErrMessageFormatCorrupt           ResponseStatus = 131
	ResponseErrSendingAddressUnresolved       ResponseStatus = 132
	ResponseErrMessageNotFound                ResponseStatus = 133
	ResponseErrNetworkProblem                 ResponseStatus = 134
	ResponseErrContentNotAccepted             ResponseStatus = 135
	ResponseErrUnsupportedMessage             ResponseStatus = 136
	ResponseErrTransientFailure               ResponseStatus = 192
	ResponseErrTransientSendingAddressUnresolved ResponseStatus = 193
	ResponseErrTransientMessageNotFound       ResponseStatus = 194
	ResponseErrTransientNetworkProblem        ResponseStatus = 195
	ResponseErrPermanentFailure                ResponseStatus = 224
	ResponseErrPermanentServiceDenied          ResponseStatus = 225
	ResponseErrPermanentMessageFormatCorrupt   ResponseStatus = 226
	ResponseErrPermanentSendingAddressUnresolved ResponseStatus = 227
	ResponseErrPermanentMessageNotFound        ResponseStatus = 228
	ResponseErrPermanentContentNotAccepted     ResponseStatus = 229
	ResponseErrPermanentReplyChargingLimitNotMet ResponseStatus = 230
	ResponseErrPermanentReplyChargingRequestNotAccepted ResponseStatus = 231
	ResponseErrPermanentReplyChargingForwardingDenied ResponseStatus = 232
	ResponseErrPermanentReplyChargingNotSupported ResponseStatus = 233
	ResponseErrPermanentAddressHidingNotSupported ResponseStatus = 234
	ResponseErrPermanentLackOfPrepaid          ResponseStatus = 235
)

// normalizeResponseStatus collapses the reserved ranges from
// OMA-WAP-MMS-ENC / spec §4.1: 196-223 -> transient-failure (192),
// 234-255 -> permanent-failure (224). The table above assigns
// LackOfPrepaid=235 and AddressHidingNotSupported=234, inside the
// collapse range, so a decoded Send.conf never carries either code;
// the literal MMSC-reported byte is not kept.
func normalizeResponseStatus(raw byte) ResponseStatus {
	switch {
	case raw >= 196 && raw <= 223:
		return ResponseErrTransientFailure
	case raw >= 234 && raw <= 255:
		return ResponseErrPermanentFailure
	default:
		return ResponseStatus(raw)
	}
}

// IsOK reports whether s denotes success.
func (s ResponseStatus) IsOK() bool { return s == ResponseOK }

// IsRefused reports whether s is one of the fixed failure codes the
// Send task maps to Refused (spec §4.7).
func (s ResponseStatus) IsRefused() bool {
	switch s {
	case ResponseErrServiceDenied,
		ResponseErrContentNotAccepted,
		ResponseErrUnsupportedMessage,
		ResponseErrPermanentServiceDenied,
		ResponseErrPermanentContentNotAccepted,
		ResponseErrPermanentLackOfPrepaid:
		return true
	default:
		return false
	}
}

// IsPermanentFailure reports whether s is some other (non-refusal)
// permanent failure, which the Send task maps to SendError.
func (s ResponseStatus) IsPermanentFailure() bool {
	return !s.IsOK() && byte(s) >= byte(ResponseErrPermanentFailure) && !s.IsRefused()
}

// FromToken identifies the two special forms of the From header.
type FromToken byte

const (
	FromAddressPresent FromToken = 0x80
	FromInsertAddress  FromToken = 0x81
)

// ExpiryToken distinguishes the two forms of Expiry/Delivery-Time.
type ExpiryToken byte

const (
	ExpiryAbsolute ExpiryToken = 0x80
	ExpiryRelative ExpiryToken = 0x81
)

// ContentDisposition is the value of a part's Content-Disposition
// header.
type ContentDisposition byte

const (
	DispositionFormData   ContentDisposition = 128
	DispositionAttachment ContentDisposition = 129
	DispositionInline     ContentDisposition = 130
)

// MMSContentType is the wire-level media type of an MMS PDU body.
const MMSContentType = "application/vnd.wap.mms-message"

// SMILContentType is the media type of a synthesised SMIL part.
const SMILContentType = "application/smil"
