package mms

import "github.com/nuntium/mmsengine/wsp"

// pushPDUType is the WSP PDU type byte identifying a Push.
const pushPDUType = 0x06

// StripPushEnvelope detects and removes an optional WAP Push wrapper
// in front of an MMS PDU. byte[1]==0x06 marks a push PDU; a uintvar
// header length follows at byte[2], and the push header itself must
// declare a content-type equal to MMSContentType for this to be an
// MMS push. If no push wrapper is present, data is returned unchanged.
func StripPushEnvelope(data []byte) ([]byte, error) {
	if len(data) < 3 || data[1] != pushPDUType {
		return data, nil
	}
	r := wsp.NewReader(data[2:])
	hlen, err := r.ReadUintvar()
	if err != nil {
		return nil, decodeError("mms: push header length: %v", err)
	}
	headerBytes, err := r.ReadBytes(int(hlen))
	if err != nil {
		return nil, decodeError("mms: push header: %v", err)
	}
	if !pushHeaderIsMMS(headerBytes) {
		return data, nil // not an MMS push; leave the wrapper alone
	}
	pduStart := 2 + r.Pos()
	return data[pduStart:], nil
}

// pushHeaderIsMMS scans the push header field list for a Content-Type
// header equal to MMSContentType.
func pushHeaderIsMMS(headerBytes []byte) bool {
	hr := wsp.NewReader(headerBytes)
	for !hr.Done() {
		id, val, isApp, err := readHeaderField(hr)
		if err != nil {
			return false
		}
		if isApp {
			continue
		}
		if id == HeaderContentType {
			ct, _, err := readContentTypeField(&val)
			return err == nil && ct.Full() == MMSContentType
		}
	}
	return false
}
