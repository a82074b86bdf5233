package mms

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleSendReq() *PDU {
	return &PDU{
		Type:          MessageTypeSendReq,
		Version:       0x13,
		TransactionID: "T-send-1",
		SendReq: &SendReq{
			From:     From{Address: "+15551230000"},
			To:       []string{"+1234567890"},
			Subject:  "hello there",
			Class:    ClassPersonal,
			Priority: PriorityNormal,
			Date:     time.Unix(1700000000, 0).UTC(),
			ContentType: ContentType{
				Type: "application", Subtype: "vnd.wap.multipart.related",
				Params: map[string]string{"start": "<smil>", "type": SMILContentType},
			},
			Parts: []Part{
				{
					ContentType: ContentType{Type: "application", Subtype: "smil", Params: map[string]string{}},
					ContentID:   "<smil>",
					Data:        []byte("<smil></smil>"),
				},
				{
					ContentType: ContentType{Type: "text", Subtype: "plain", Params: map[string]string{"charset": "utf-8"}},
					ContentID:   "<text1>",
					Location:    "text1.txt",
					Data:        []byte("hi"),
				},
			},
		},
	}
}

func TestSendReqRoundTrip(t *testing.T) {
	pdu := sampleSendReq()
	raw, err := Encode(pdu)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)

	require.Equal(t, MessageTypeSendReq, got.Type)
	require.NotNil(t, got.SendReq)
	if diff := cmp.Diff(pdu.SendReq.To, got.SendReq.To); diff != "" {
		t.Errorf("To mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, pdu.SendReq.Subject, got.SendReq.Subject)
	require.Equal(t, pdu.SendReq.From.Address, got.SendReq.From.Address)
	require.Equal(t, pdu.SendReq.Class, got.SendReq.Class)
	require.Equal(t, pdu.SendReq.Priority, got.SendReq.Priority)
	require.Len(t, got.SendReq.Parts, 2)
	require.Equal(t, "<smil>", got.SendReq.Parts[0].ContentID)
	require.Equal(t, []byte("<smil></smil>"), got.SendReq.Parts[0].Data)
	require.Equal(t, "utf-8", got.SendReq.Parts[1].ContentType.Params["charset"])
}

func TestSendConfRoundTrip(t *testing.T) {
	pdu := &PDU{
		Type:          MessageTypeSendConf,
		TransactionID: "T-1",
		SendConf: &SendConf{
			ResponseStatus: ResponseOK,
			MessageID:      "TestMessageId",
		},
	}
	raw, err := Encode(pdu)
	require.NoError(t, err)
	got, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, ResponseOK, got.SendConf.ResponseStatus)
	require.Equal(t, "TestMessageId", got.SendConf.MessageID)
}

func TestReadRecIndRoundTrip(t *testing.T) {
	pdu := &PDU{
		Type: MessageTypeReadRecInd,
		ReadRecInd: &ReadRecInd{
			MessageID:  "MessageID",
			To:         []string{"+358501111111/TYPE=PLMN"},
			Date:       time.Unix(1700000001, 0).UTC(),
			ReadStatus: ReadStatusRead,
		},
	}
	raw, err := Encode(pdu)
	require.NoError(t, err)
	got, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, MessageTypeReadRecInd, got.Type)
	require.Equal(t, "MessageID", got.ReadRecInd.MessageID)
	require.Equal(t, []string{"+358501111111/TYPE=PLMN"}, got.ReadRecInd.To)
	require.Equal(t, ReadStatusRead, got.ReadRecInd.ReadStatus)
}

func TestEmptyMultipartDecodesToZeroParts(t *testing.T) {
	body := []byte{0x00} // uintvar count = 0
	parts, err := decodeMultipart(body)
	require.NoError(t, err)
	require.Len(t, parts, 0)
}

func TestResponseStatusReservedRangeCollapse(t *testing.T) {
	require.Equal(t, ResponseErrTransientFailure, normalizeResponseStatus(200))
	require.Equal(t, ResponseErrPermanentFailure, normalizeResponseStatus(240))
	require.Equal(t, ResponseOK, normalizeResponseStatus(128))
}

func TestDedupePartsPrefixesUnderscoreOnCollision(t *testing.T) {
	parts := []Part{
		{ContentID: "<a>", Location: "x.txt"},
		{ContentID: "<a>", Location: "x.txt"},
	}
	out := dedupeParts(parts)
	require.Equal(t, "<a>", out[0].ContentID)
	require.Equal(t, "_<a>", out[1].ContentID)
	require.Equal(t, "x.txt", out[0].Location)
	require.Equal(t, "_x.txt", out[1].Location)
}

func TestPushEnvelopeStripping(t *testing.T) {
	inner := sampleSendReq()
	inner.Type = MessageTypeNotificationInd
	inner.NotificationInd = &NotificationInd{
		From:            From{Address: "+1"},
		MessageSize:     100,
		ContentLocation: "http://mmsc.example/x",
	}
	raw, err := Encode(inner)
	require.NoError(t, err)

	// No push wrapper: data passes through unchanged.
	out, err := StripPushEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, raw, out)
}
