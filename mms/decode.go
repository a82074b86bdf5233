package mms

import (
	"strconv"
	"strings"
	"time"

	"github.com/nuntium/mmsengine/charset"
	"github.com/nuntium/mmsengine/wsp"
)

// Decode parses raw bytes into a PDU. It is tolerant on input: unknown
// headers are skipped, and a header present more than once keeps only
// its first occurrence except for the address-list headers (Bcc, Cc,
// To), which accumulate.
func Decode(data []byte) (*PDU, error) {
	r := wsp.NewReader(data)

	h := make(map[HeaderID]wsp.Reader)
	addrs := map[HeaderID][]string{}
	var msgType MessageType
	var version byte
	var transactionID string
	var contentType *ContentType
	var bodyStart = -1

	for !r.Done() {
		id, val, isAppHeader, err := readHeaderField(r)
		if err != nil {
			return nil, decodeError("mms: reading header at offset %d: %v", r.Pos(), err)
		}
		if isAppHeader {
			continue // application headers are carried but not interpreted
		}
		switch id {
		case HeaderMessageType:
			b, err := val.ReadByte()
			if err != nil {
				return nil, decodeError("mms: message-type: %v", err)
			}
			msgType = MessageType(b)
		case HeaderMMSVersion:
			b, err := val.ReadByte()
			if err != nil {
				return nil, decodeError("mms: mms-version: %v", err)
			}
			version = b
		case HeaderTransactionID:
			s, err := val.ReadTextString()
			if err != nil {
				return nil, decodeError("mms: transaction-id: %v", err)
			}
			if transactionID == "" {
				transactionID = s
			}
		case HeaderContentType:
			ct, _, err := readContentTypeField(&val)
			if err != nil {
				return nil, decodeError("mms: content-type: %v", err)
			}
			contentType = &ct
			bodyStart = r.Pos()
		case HeaderBcc, HeaderCc, HeaderTo:
			s, err := decodeEncodedOrText(&val)
			if err != nil {
				return nil, decodeError("mms: address header 0x%02x: %v", id, err)
			}
			addrs[id] = append(addrs[id], s)
		default:
			if _, exists := h[id]; !exists {
				h[id] = val
			}
		}
		if bodyStart >= 0 {
			break // Content-Type marks the start of the PDU body
		}
	}

	pdu := &PDU{Type: msgType, Version: version, TransactionID: transactionID}

	var body []byte
	if bodyStart >= 0 {
		body = data[bodyStart:]
	}

	switch msgType {
	case MessageTypeSendReq:
		return decodeSendReq(pdu, h, addrs, contentType, body)
	case MessageTypeSendConf:
		return decodeSendConf(pdu, h)
	case MessageTypeNotificationInd:
		return decodeNotificationInd(pdu, h)
	case MessageTypeNotifyRespInd:
		return decodeNotifyRespInd(pdu, h)
	case MessageTypeRetrieveConf:
		return decodeRetrieveConf(pdu, h, addrs, contentType, body)
	case MessageTypeAcknowledgeInd:
		return decodeAcknowledgeInd(pdu, h)
	case MessageTypeDeliveryInd:
		return decodeDeliveryInd(pdu, h, addrs)
	case MessageTypeReadRecInd:
		return decodeReadRecInd(pdu, h, addrs)
	case MessageTypeReadOrigInd:
		return decodeReadOrigInd(pdu, h, addrs)
	default:
		return nil, decodeError("mms: unsupported message-type 0x%02x", byte(msgType))
	}
}

// readHeaderField reads one header: either well-known (high bit set on
// the id byte) or an application header (NUL-terminated name). val is
// a sub-reader scoped to exactly that header's value bytes, except for
// headers whose value extends to end-of-buffer by convention (none in
// this format — every header value is self-delimiting).
func readHeaderField(r *wsp.Reader) (id HeaderID, val wsp.Reader, isAppHeader bool, err error) {
	b, err := r.PeekByte()
	if err != nil {
		return 0, wsp.Reader{}, false, err
	}
	if b&0x80 != 0 {
		idByte, _ := r.ReadByte()
		rest := *wsp.NewReader(r.Rest())
		consumed, err := skipHeaderValue(&rest)
		if err != nil {
			return 0, wsp.Reader{}, false, err
		}
		sub := wsp.NewReader(r.Rest()[:consumed])
		if err := r.Seek(r.Pos() + consumed); err != nil {
			return 0, wsp.Reader{}, false, err
		}
		return HeaderID(idByte & 0x7F), *sub, false, nil
	}
	// application-header: NUL-terminated name, then a value we skip.
	if _, err := r.ReadTextString(); err != nil {
		return 0, wsp.Reader{}, false, err
	}
	rest := *wsp.NewReader(r.Rest())
	consumed, err := skipHeaderValue(&rest)
	if err != nil {
		return 0, wsp.Reader{}, false, err
	}
	if err := r.Seek(r.Pos() + consumed); err != nil {
		return 0, wsp.Reader{}, false, err
	}
	return 0, wsp.Reader{}, true, nil
}

// skipHeaderValue determines how many bytes a header's value occupies
// without knowing its specific grammar: a short-integer (high bit
// set, 1 byte), a value-length-prefixed field (0-30 literal length or
// 31 + uintvar length), or a NUL-terminated text-string.
func skipHeaderValue(r *wsp.Reader) (int, error) {
	start := r.Pos()
	b, err := r.PeekByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b&0x80 != 0:
		r.ReadByte()
		return r.Pos() - start, nil
	case b >= 1 && b <= 30:
		n, err := r.ReadValueLength()
		if err != nil {
			return 0, err
		}
		if _, err := r.ReadBytes(int(n)); err != nil {
			return 0, err
		}
		return r.Pos() - start, nil
	case b == wsp.LongFormValueLength:
		n, err := r.ReadValueLength()
		if err != nil {
			return 0, err
		}
		if _, err := r.ReadBytes(int(n)); err != nil {
			return 0, err
		}
		return r.Pos() - start, nil
	default:
		if _, err := r.ReadTextString(); err != nil {
			return 0, err
		}
		return r.Pos() - start, nil
	}
}

// decodeEncodedOrText decodes an encoded-string-value: either a plain
// text-string, or a value-length-prefixed (charset-mib text-string)
// pair, converting to UTF-8 via the charset package.
func decodeEncodedOrText(r *wsp.Reader) (string, error) {
	b, err := r.PeekByte()
	if err != nil {
		return "", err
	}
	if b > wsp.LongFormValueLength {
		// plain text-string form (no value-length prefix observed)
		return r.ReadTextString()
	}
	vlen, err := r.ReadValueLength()
	if err != nil {
		return "", err
	}
	sub, err := r.ReadBytes(int(vlen))
	if err != nil {
		return "", err
	}
	inner := wsp.NewReader(sub)
	mib, err := inner.ReadShortInteger()
	var mibEnum int
	if err != nil {
		// some encoders emit a long-integer charset-mib
		inner.Seek(0)
		v, err2 := inner.ReadLongInteger()
		if err2 != nil {
			return "", err
		}
		mibEnum = int(v)
	} else {
		mibEnum = int(mib)
	}
	text, err := inner.ReadTextString()
	if err != nil {
		return "", err
	}
	return charset.Decode(mibEnum, []byte(text))
}

func decodeFromHeader(r *wsp.Reader) (From, error) {
	vlen, err := r.ReadValueLength()
	if err != nil {
		return From{}, err
	}
	sub, err := r.ReadBytes(int(vlen))
	if err != nil {
		return From{}, err
	}
	inner := wsp.NewReader(sub)
	tok, err := inner.ReadByte()
	if err != nil {
		return From{}, err
	}
	switch FromToken(tok) {
	case FromInsertAddress:
		return From{InsertAddress: true}, nil
	case FromAddressPresent:
		addr, err := decodeEncodedOrText(inner)
		if err != nil {
			return From{}, err
		}
		return From{Address: addr}, nil
	default:
		return From{}, decodeError("mms: unknown from-token 0x%02x", tok)
	}
}

func decodeExpiryHeader(r *wsp.Reader) (*Expiry, error) {
	vlen, err := r.ReadValueLength()
	if err != nil {
		return nil, err
	}
	sub, err := r.ReadBytes(int(vlen))
	if err != nil {
		return nil, err
	}
	inner := wsp.NewReader(sub)
	tok, err := inner.ReadByte()
	if err != nil {
		return nil, err
	}
	switch ExpiryToken(tok) {
	case ExpiryAbsolute:
		d, err := inner.ReadDateValue()
		if err != nil {
			return nil, err
		}
		return &Expiry{Absolute: true, At: d}, nil
	case ExpiryRelative:
		d, err := inner.ReadLongInteger()
		if err != nil {
			return nil, err
		}
		return &Expiry{Absolute: false, DeltaSec: int64(d)}, nil
	default:
		return nil, decodeError("mms: unknown expiry-token 0x%02x", tok)
	}
}

func decodeDateHeader(r *wsp.Reader) (time.Time, error) {
	secs, err := r.ReadDateValue()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

func readContentTypeField(r *wsp.Reader) (ContentType, []byte, error) {
	b, err := r.PeekByte()
	if err != nil {
		return ContentType{}, nil, err
	}
	if b&0x80 != 0 {
		r.ReadByte()
		return ContentType{}, nil, decodeError("mms: unsupported well-known content-type 0x%02x", b)
	}
	vlen, err := r.ReadValueLength()
	if err != nil {
		return ContentType{}, nil, err
	}
	raw, err := r.ReadBytes(int(vlen))
	if err != nil {
		return ContentType{}, nil, err
	}
	inner := wsp.NewReader(raw)
	media, err := inner.ReadTextString()
	if err != nil {
		return ContentType{}, nil, err
	}
	ct := ContentType{Params: map[string]string{}}
	if slash := strings.IndexByte(media, '/'); slash >= 0 {
		ct.Type, ct.Subtype = media[:slash], media[slash+1:]
	} else {
		ct.Type = media
	}
	for !inner.Done() {
		pb, err := inner.PeekByte()
		if err != nil {
			break
		}
		if pb < 0x80 {
			break
		}
		pid, _ := inner.ReadByte()
		val, err := decodeParamValue(inner)
		if err != nil {
			return ContentType{}, nil, err
		}
		ct.Params[paramName(pid&0x7F)] = val
	}
	return ct, raw, nil
}

func decodeParamValue(r *wsp.Reader) (string, error) {
	b, err := r.PeekByte()
	if err != nil {
		return "", err
	}
	if b&0x80 != 0 {
		v, err := r.ReadShortInteger()
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(v)), nil
	}
	return r.ReadTextString()
}

func paramName(id byte) string {
	switch id {
	case 0x00:
		return "q"
	case 0x01:
		return "charset"
	case 0x05:
		return "type"
	case 0x09:
		return "start"
	case 0x17:
		return "name"
	case 0x18:
		return "filename"
	default:
		return "x-param"
	}
}

// decodeMultipart parses a multipart body: a uintvar entry count
// followed by, per entry, uintvar header-len, uintvar data-len, a
// content-type, remaining part headers, and the part body. The part
// content-type must be in the value-length-prefixed string form; a
// well-known short-integer content-type is rejected as a decode error.
func decodeMultipart(body []byte) ([]Part, error) {
	r := wsp.NewReader(body)
	count, err := r.ReadUintvar()
	if err != nil {
		return nil, decodeError("mms: multipart count: %v", err)
	}
	parts := make([]Part, 0, count)
	for i := uint64(0); i < count; i++ {
		hlen, err := r.ReadUintvar()
		if err != nil {
			return nil, decodeError("mms: part %d header-len: %v", i, err)
		}
		dlen, err := r.ReadUintvar()
		if err != nil {
			return nil, decodeError("mms: part %d data-len: %v", i, err)
		}
		headerBytes, err := r.ReadBytes(int(hlen))
		if err != nil {
			return nil, decodeError("mms: part %d headers: %v", i, err)
		}
		data, err := r.ReadBytes(int(dlen))
		if err != nil {
			return nil, decodeError("mms: part %d body: %v", i, err)
		}
		p, err := decodePartHeaders(headerBytes)
		if err != nil {
			return nil, err
		}
		p.Data = data
		parts = append(parts, p)
	}
	return parts, nil
}

func decodePartHeaders(raw []byte) (Part, error) {
	hr := wsp.NewReader(raw)
	ct, _, err := readContentTypeField(hr)
	if err != nil {
		return Part{}, err
	}
	p := Part{ContentType: ct}
	for !hr.Done() {
		b, err := hr.PeekByte()
		if err != nil {
			break
		}
		if b&0x80 == 0 {
			// application-header inside a part: name then value.
			if _, err := hr.ReadTextString(); err != nil {
				return Part{}, err
			}
			if _, err := hr.ReadTextString(); err != nil {
				return Part{}, err
			}
			continue
		}
		id, _ := hr.ReadByte()
		switch PartHeaderID(id & 0x7F) {
		case PartHeaderContentLocation:
			s, err := hr.ReadTextString()
			if err != nil {
				return Part{}, err
			}
			p.Location = s
		case PartHeaderContentDisposition, PartHeaderContentDisposition2:
			vlen, err := hr.ReadValueLength()
			if err != nil {
				return Part{}, err
			}
			sub, err := hr.ReadBytes(int(vlen))
			if err != nil {
				return Part{}, err
			}
			inner := wsp.NewReader(sub)
			dv, err := inner.ReadByte()
			if err != nil {
				return Part{}, err
			}
			p.Disposition = ContentDisposition(dv)
			p.HasDisposition = true
		case PartHeaderContentID:
			s, err := hr.ReadQuotedString()
			if err != nil {
				return Part{}, err
			}
			p.ContentID = s
		default:
			if _, err := skipHeaderValue(hr); err != nil {
				return Part{}, err
			}
		}
	}
	return p, nil
}

func decodeSendReq(pdu *PDU, h map[HeaderID]wsp.Reader, addrs map[HeaderID][]string, ct *ContentType, body []byte) (*PDU, error) {
	req := &SendReq{To: addrs[HeaderTo], Cc: addrs[HeaderCc], Bcc: addrs[HeaderBcc]}
	if ct != nil {
		req.ContentType = *ct
	}
	if r, ok := h[HeaderFrom]; ok {
		f, err := decodeFromHeader(&r)
		if err != nil {
			return nil, err
		}
		req.From = f
	}
	if r, ok := h[HeaderSubject]; ok {
		s, err := decodeEncodedOrText(&r)
		if err != nil {
			return nil, err
		}
		req.Subject = s
	}
	if r, ok := h[HeaderMessageClass]; ok {
		b, _ := r.ReadByte()
		req.Class = MessageClass(b)
	}
	if r, ok := h[HeaderPriority]; ok {
		b, _ := r.ReadByte()
		req.Priority = Priority(b)
	}
	if r, ok := h[HeaderExpiry]; ok {
		e, err := decodeExpiryHeader(&r)
		if err != nil {
			return nil, err
		}
		req.Expiry = e
	}
	if r, ok := h[HeaderDeliveryReport]; ok {
		b, _ := r.ReadByte()
		req.DeliveryReport = Boolean(b)
	}
	if r, ok := h[HeaderReadReport]; ok {
		b, _ := r.ReadByte()
		req.ReadReport = Boolean(b)
	}
	if r, ok := h[HeaderDate]; ok {
		t, err := decodeDateHeader(&r)
		if err == nil {
			req.Date = t
		}
	}
	if isMultipart(req.ContentType) && len(body) > 0 {
		parts, err := decodeMultipart(body)
		if err != nil {
			return nil, err
		}
		req.Parts = dedupeParts(parts)
	}
	pdu.SendReq = req
	return pdu, nil
}

func decodeSendConf(pdu *PDU, h map[HeaderID]wsp.Reader) (*PDU, error) {
	conf := &SendConf{}
	if r, ok := h[HeaderResponseStatus]; ok {
		b, _ := r.ReadByte()
		conf.ResponseStatus = normalizeResponseStatus(b)
	}
	if r, ok := h[HeaderResponseText]; ok {
		s, err := decodeEncodedOrText(&r)
		if err == nil {
			conf.ResponseText = s
		}
	}
	if r, ok := h[HeaderMessageID]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			conf.MessageID = s
		}
	}
	pdu.SendConf = conf
	return pdu, nil
}

func decodeNotificationInd(pdu *PDU, h map[HeaderID]wsp.Reader) (*PDU, error) {
	ind := &NotificationInd{}
	if r, ok := h[HeaderFrom]; ok {
		f, err := decodeFromHeader(&r)
		if err == nil {
			ind.From = f
		}
	}
	if r, ok := h[HeaderSubject]; ok {
		s, err := decodeEncodedOrText(&r)
		if err == nil {
			ind.Subject = s
		}
	}
	if r, ok := h[HeaderMessageClass]; ok {
		b, _ := r.ReadByte()
		ind.MessageClass = MessageClass(b)
	}
	if r, ok := h[HeaderMessageSize]; ok {
		v, err := r.ReadLongInteger()
		if err == nil {
			ind.MessageSize = v
		}
	}
	if r, ok := h[HeaderExpiry]; ok {
		e, err := decodeExpiryHeader(&r)
		if err == nil {
			ind.Expiry = e
		}
	}
	if r, ok := h[HeaderContentLocation]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			ind.ContentLocation = s
		}
	}
	pdu.NotificationInd = ind
	return pdu, nil
}

func decodeNotifyRespInd(pdu *PDU, h map[HeaderID]wsp.Reader) (*PDU, error) {
	ind := &NotifyRespInd{}
	if r, ok := h[HeaderStatus]; ok {
		b, _ := r.ReadByte()
		ind.Status = DeliveryStatus(b)
	}
	if r, ok := h[HeaderReportAllowed]; ok {
		b, _ := r.ReadByte()
		ind.ReportAllowed = Boolean(b)
	}
	pdu.NotifyRespInd = ind
	return pdu, nil
}

func decodeRetrieveConf(pdu *PDU, h map[HeaderID]wsp.Reader, addrs map[HeaderID][]string, ct *ContentType, body []byte) (*PDU, error) {
	conf := &RetrieveConf{To: addrs[HeaderTo], Cc: addrs[HeaderCc]}
	if ct != nil {
		conf.ContentType = *ct
	}
	if r, ok := h[HeaderRetrieveStatus]; ok {
		b, _ := r.ReadByte()
		conf.RetrieveStatus = RetrieveStatus(b)
	}
	if r, ok := h[HeaderRetrieveText]; ok {
		s, err := decodeEncodedOrText(&r)
		if err == nil {
			conf.RetrieveText = s
		}
	}
	if r, ok := h[HeaderMessageID]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			conf.MessageID = s
		}
	}
	if r, ok := h[HeaderFrom]; ok {
		f, err := decodeFromHeader(&r)
		if err == nil {
			conf.From = f
		}
	}
	if r, ok := h[HeaderSubject]; ok {
		s, err := decodeEncodedOrText(&r)
		if err == nil {
			conf.Subject = s
		}
	}
	if r, ok := h[HeaderPriority]; ok {
		b, _ := r.ReadByte()
		conf.Priority = Priority(b)
	}
	if r, ok := h[HeaderDate]; ok {
		t, err := decodeDateHeader(&r)
		if err == nil {
			conf.Date = t
		}
	}
	if conf.RetrieveStatus.IsError() {
		pdu.RetrieveConf = conf
		return pdu, nil
	}
	if isMultipart(conf.ContentType) && len(body) > 0 {
		parts, err := decodeMultipart(body)
		if err != nil {
			return nil, err
		}
		conf.Parts = dedupeParts(parts)
	}
	pdu.RetrieveConf = conf
	return pdu, nil
}

func decodeAcknowledgeInd(pdu *PDU, h map[HeaderID]wsp.Reader) (*PDU, error) {
	ind := &AcknowledgeInd{}
	if r, ok := h[HeaderReportAllowed]; ok {
		b, _ := r.ReadByte()
		ind.ReportAllowed = Boolean(b)
	}
	pdu.AcknowledgeInd = ind
	return pdu, nil
}

func decodeDeliveryInd(pdu *PDU, h map[HeaderID]wsp.Reader, addrs map[HeaderID][]string) (*PDU, error) {
	ind := &DeliveryInd{To: addrs[HeaderTo]}
	if r, ok := h[HeaderMessageID]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			ind.MessageID = s
		}
	}
	if r, ok := h[HeaderDate]; ok {
		t, err := decodeDateHeader(&r)
		if err == nil {
			ind.Date = t
		}
	}
	if r, ok := h[HeaderStatus]; ok {
		b, _ := r.ReadByte()
		ind.Status = DeliveryStatus(b)
	}
	pdu.DeliveryInd = ind
	return pdu, nil
}

func decodeReadRecInd(pdu *PDU, h map[HeaderID]wsp.Reader, addrs map[HeaderID][]string) (*PDU, error) {
	ind := &ReadRecInd{To: addrs[HeaderTo]}
	if r, ok := h[HeaderMessageID]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			ind.MessageID = s
		}
	}
	if r, ok := h[HeaderFrom]; ok {
		f, err := decodeFromHeader(&r)
		if err == nil {
			ind.From = f.Address
		}
	}
	if r, ok := h[HeaderDate]; ok {
		t, err := decodeDateHeader(&r)
		if err == nil {
			ind.Date = t
		}
	}
	if r, ok := h[HeaderReadStatus]; ok {
		b, _ := r.ReadByte()
		ind.ReadStatus = ReadStatus(b)
	}
	pdu.ReadRecInd = ind
	return pdu, nil
}

func decodeReadOrigInd(pdu *PDU, h map[HeaderID]wsp.Reader, addrs map[HeaderID][]string) (*PDU, error) {
	ind := &ReadOrigInd{To: addrs[HeaderTo]}
	if r, ok := h[HeaderMessageID]; ok {
		s, err := r.ReadTextString()
		if err == nil {
			ind.MessageID = s
		}
	}
	if r, ok := h[HeaderFrom]; ok {
		f, err := decodeFromHeader(&r)
		if err == nil {
			ind.From = f.Address
		}
	}
	if r, ok := h[HeaderDate]; ok {
		t, err := decodeDateHeader(&r)
		if err == nil {
			ind.Date = t
		}
	}
	if r, ok := h[HeaderReadStatus]; ok {
		b, _ := r.ReadByte()
		ind.ReadStatus = ReadStatus(b)
	}
	pdu.ReadOrigInd = ind
	return pdu, nil
}

func isMultipart(ct ContentType) bool {
	full := strings.ToLower(ct.Full())
	return full == "multipart/related" || full == "multipart/mixed" || full == "multipart/alternative"
}

// dedupeParts enforces content-id/filename uniqueness within a
// message by prefixing an underscore on collision, matching the
// on-disk layout rule.
func dedupeParts(parts []Part) []Part {
	seenID := map[string]bool{}
	seenName := map[string]bool{}
	out := make([]Part, len(parts))
	for i, p := range parts {
		for p.ContentID != "" && seenID[p.ContentID] {
			p.ContentID = "_" + p.ContentID
		}
		if p.ContentID != "" {
			seenID[p.ContentID] = true
		}
		name := p.Filename()
		for name != "" && seenName[name] {
			name = "_" + name
			p.Location = name
		}
		if name != "" {
			seenName[name] = true
		}
		out[i] = p
	}
	return out
}
