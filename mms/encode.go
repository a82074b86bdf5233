package mms

import (
	"sort"
	"strings"

	"github.com/nuntium/mmsengine/wsp"
)

// Encode renders a PDU onto the wire. Output is deterministic: map
// iteration over content-type parameters is sorted, so the same PDU
// value always produces the same bytes.
func Encode(pdu *PDU) ([]byte, error) {
	w := wsp.NewWriter()
	encodeShortHeader(w, HeaderMessageType, byte(pdu.Type))
	if pdu.Version != 0 {
		encodeShortHeader(w, HeaderMMSVersion, pdu.Version)
	}
	if pdu.TransactionID != "" {
		encodeTextHeader(w, HeaderTransactionID, pdu.TransactionID)
	}

	switch pdu.Type {
	case MessageTypeSendReq:
		return encodeSendReq(w, pdu.SendReq)
	case MessageTypeSendConf:
		return encodeSendConf(w, pdu.SendConf)
	case MessageTypeNotificationInd:
		return encodeNotificationInd(w, pdu.NotificationInd)
	case MessageTypeNotifyRespInd:
		return encodeNotifyRespInd(w, pdu.NotifyRespInd)
	case MessageTypeAcknowledgeInd:
		return encodeAcknowledgeInd(w, pdu.AcknowledgeInd)
	case MessageTypeReadRecInd:
		return encodeReadRecInd(w, pdu.ReadRecInd)
	default:
		return nil, encodeError("mms: encoding message-type 0x%02x is not supported", byte(pdu.Type))
	}
}

func encodeShortHeader(w *wsp.Writer, id HeaderID, v byte) {
	w.WriteByte(0x80 | byte(id))
	w.WriteByte(v)
}

func encodeTextHeader(w *wsp.Writer, id HeaderID, s string) {
	w.WriteByte(0x80 | byte(id))
	w.WriteTextString(s)
}

func encodeEncodedStringHeader(w *wsp.Writer, id HeaderID, s string) {
	w.WriteByte(0x80 | byte(id))
	encodeEncodedStringValue(w, s)
}

// encodeEncodedStringValue always emits the plain text-string form:
// every string this engine produces is already UTF-8 and MIB 106
// (UTF-8) is always an acceptable encoding to claim, but emitting the
// bare text-string keeps output minimal and matches what MMSCs expect
// from a client that never needs legacy charsets on the way out.
func encodeEncodedStringValue(w *wsp.Writer, s string) {
	w.WriteTextString(s)
}

func encodeAddressListHeader(w *wsp.Writer, id HeaderID, addrs []string) {
	for _, a := range addrs {
		encodeEncodedStringHeader(w, id, a)
	}
}

func encodeFromHeader(w *wsp.Writer, id HeaderID, f From) error {
	if f.InsertAddress && f.Address != "" {
		return encodeError("mms: from header cannot carry an address with insert-address")
	}
	w.WriteByte(0x80 | byte(id))
	inner := wsp.NewWriter()
	if f.Address == "" {
		inner.WriteByte(byte(FromInsertAddress))
	} else {
		inner.WriteByte(byte(FromAddressPresent))
		encodeEncodedStringValue(inner, f.Address)
	}
	w.WriteValueLength(uint64(inner.Len()))
	w.WriteBytes(inner.Bytes())
	return nil
}

func encodeExpiryHeader(w *wsp.Writer, id HeaderID, e *Expiry) error {
	w.WriteByte(0x80 | byte(id))
	inner := wsp.NewWriter()
	if e.Absolute {
		inner.WriteByte(byte(ExpiryAbsolute))
		if err := inner.WriteDateValue(e.At); err != nil {
			return err
		}
	} else {
		inner.WriteByte(byte(ExpiryRelative))
		if err := inner.WriteLongInteger(uint64(e.DeltaSec)); err != nil {
			return err
		}
	}
	w.WriteValueLength(uint64(inner.Len()))
	w.WriteBytes(inner.Bytes())
	return nil
}

func encodeDateHeader(w *wsp.Writer, id HeaderID, secs int64) error {
	w.WriteByte(0x80 | byte(id))
	return w.WriteDateValue(secs)
}

func encodeContentTypeField(w *wsp.Writer, ct ContentType) {
	inner := wsp.NewWriter()
	inner.WriteTextString(ct.Full())
	keys := make([]string, 0, len(ct.Params))
	for k := range ct.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		encodeParam(inner, k, ct.Params[k])
	}
	w.WriteValueLength(uint64(inner.Len()))
	w.WriteBytes(inner.Bytes())
}

func encodeParam(w *wsp.Writer, name, value string) {
	id, ok := paramID(name)
	if !ok {
		w.WriteTextString(name)
		w.WriteTextString(value)
		return
	}
	w.WriteByte(0x80 | id)
	w.WriteTextString(value)
}

func paramID(name string) (byte, bool) {
	switch strings.ToLower(name) {
	case "q":
		return 0x00, true
	case "charset":
		return 0x01, true
	case "type":
		return 0x05, true
	case "start":
		return 0x09, true
	case "name":
		return 0x17, true
	case "filename":
		return 0x18, true
	default:
		return 0, false
	}
}

func encodeMultipart(w *wsp.Writer, parts []Part) {
	w.WriteUintvar(uint64(len(parts)))
	for _, p := range parts {
		headers := wsp.NewWriter()
		encodeContentTypeField(headers, p.ContentType)
		if p.ContentID != "" {
			headers.WriteByte(0x80 | byte(PartHeaderContentID))
			headers.WriteQuotedString(p.ContentID)
		}
		if p.Location != "" {
			headers.WriteByte(0x80 | byte(PartHeaderContentLocation))
			headers.WriteTextString(p.Location)
		}
		if p.HasDisposition {
			headers.WriteByte(0x80 | byte(PartHeaderContentDisposition))
			inner := wsp.NewWriter()
			inner.WriteByte(byte(p.Disposition))
			headers.WriteValueLength(uint64(inner.Len()))
			headers.WriteBytes(inner.Bytes())
		}
		w.WriteUintvar(uint64(headers.Len()))
		w.WriteUintvar(uint64(len(p.Data)))
		w.WriteBytes(headers.Bytes())
		w.WriteBytes(p.Data)
	}
}

func encodeSendReq(w *wsp.Writer, req *SendReq) ([]byte, error) {
	if req == nil {
		return nil, encodeError("mms: send.req payload missing")
	}
	if err := encodeFromHeader(w, HeaderFrom, req.From); err != nil {
		return nil, err
	}
	encodeAddressListHeader(w, HeaderTo, req.To)
	encodeAddressListHeader(w, HeaderCc, req.Cc)
	encodeAddressListHeader(w, HeaderBcc, req.Bcc)
	if req.Subject != "" {
		encodeEncodedStringHeader(w, HeaderSubject, req.Subject)
	}
	if req.Class != 0 {
		encodeShortHeader(w, HeaderMessageClass, byte(req.Class))
	}
	if req.Priority != 0 {
		encodeShortHeader(w, HeaderPriority, byte(req.Priority))
	}
	if req.Expiry != nil {
		if err := encodeExpiryHeader(w, HeaderExpiry, req.Expiry); err != nil {
			return nil, err
		}
	}
	if req.DeliveryReport != 0 {
		encodeShortHeader(w, HeaderDeliveryReport, byte(req.DeliveryReport))
	}
	if req.ReadReport != 0 {
		encodeShortHeader(w, HeaderReadReport, byte(req.ReadReport))
	}
	if !req.Date.IsZero() {
		if err := encodeDateHeader(w, HeaderDate, req.Date.Unix()); err != nil {
			return nil, err
		}
	}
	w.WriteByte(0x80 | byte(HeaderContentType))
	encodeContentTypeField(w, req.ContentType)
	encodeMultipart(w, req.Parts)
	return w.Bytes(), nil
}

func encodeSendConf(w *wsp.Writer, conf *SendConf) ([]byte, error) {
	if conf == nil {
		return nil, encodeError("mms: send.conf payload missing")
	}
	encodeShortHeader(w, HeaderResponseStatus, byte(conf.ResponseStatus))
	if conf.ResponseText != "" {
		encodeEncodedStringHeader(w, HeaderResponseText, conf.ResponseText)
	}
	if conf.MessageID != "" {
		encodeTextHeader(w, HeaderMessageID, conf.MessageID)
	}
	return w.Bytes(), nil
}

func encodeNotificationInd(w *wsp.Writer, ind *NotificationInd) ([]byte, error) {
	if ind == nil {
		return nil, encodeError("mms: notification.ind payload missing")
	}
	if err := encodeFromHeader(w, HeaderFrom, ind.From); err != nil {
		return nil, err
	}
	if ind.Subject != "" {
		encodeEncodedStringHeader(w, HeaderSubject, ind.Subject)
	}
	if ind.MessageClass != 0 {
		encodeShortHeader(w, HeaderMessageClass, byte(ind.MessageClass))
	}
	w.WriteByte(0x80 | byte(HeaderMessageSize))
	if err := w.WriteLongInteger(ind.MessageSize); err != nil {
		return nil, err
	}
	if ind.Expiry != nil {
		if err := encodeExpiryHeader(w, HeaderExpiry, ind.Expiry); err != nil {
			return nil, err
		}
	}
	encodeTextHeader(w, HeaderContentLocation, ind.ContentLocation)
	return w.Bytes(), nil
}

func encodeNotifyRespInd(w *wsp.Writer, ind *NotifyRespInd) ([]byte, error) {
	if ind == nil {
		return nil, encodeError("mms: notifyresp.ind payload missing")
	}
	encodeShortHeader(w, HeaderStatus, byte(ind.Status))
	if ind.ReportAllowed != 0 {
		encodeShortHeader(w, HeaderReportAllowed, byte(ind.ReportAllowed))
	}
	return w.Bytes(), nil
}

func encodeAcknowledgeInd(w *wsp.Writer, ind *AcknowledgeInd) ([]byte, error) {
	if ind == nil {
		return nil, encodeError("mms: acknowledge.ind payload missing")
	}
	if ind.ReportAllowed != 0 {
		encodeShortHeader(w, HeaderReportAllowed, byte(ind.ReportAllowed))
	}
	return w.Bytes(), nil
}

func encodeReadRecInd(w *wsp.Writer, ind *ReadRecInd) ([]byte, error) {
	if ind == nil {
		return nil, encodeError("mms: read-rec.ind payload missing")
	}
	if ind.MessageID != "" {
		encodeTextHeader(w, HeaderMessageID, ind.MessageID)
	}
	encodeAddressListHeader(w, HeaderTo, ind.To)
	if ind.From != "" {
		if err := encodeFromHeader(w, HeaderFrom, From{Address: ind.From}); err != nil {
			return nil, err
		}
	}
	if !ind.Date.IsZero() {
		if err := encodeDateHeader(w, HeaderDate, ind.Date.Unix()); err != nil {
			return nil, err
		}
	}
	encodeShortHeader(w, HeaderReadStatus, byte(ind.ReadStatus))
	return w.Bytes(), nil
}
