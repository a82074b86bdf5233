package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nuntium/mmsengine/attachment"
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddressesAppendsPLMNType(t *testing.T) {
	out := normalizeAddresses([]string{" +15551234567 ", "+15557654321/TYPE=PLMN", "", "already/TYPE=IPv4"})
	assert.Equal(t, []string{"+15551234567/TYPE=PLMN", "+15557654321/TYPE=PLMN", "already/TYPE=IPv4"}, out)
}

func TestEncodeRejectsEmptyRecipients(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHandler{}
	e := NewEncode(NewBase("encode", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, OutgoingMessage{})
	e.Run()

	require.NotEmpty(t, h.sendStates)
	assert.Equal(t, store.SendError, h.sendStates[len(h.sendStates)-1])
	assert.Equal(t, Done, e.State())
}

func TestEncodeWritesSendReqAndQueuesSend(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello there"), 0o644))

	h := &fakeHandler{}
	d := &recordingDelegate{}
	e := NewEncode(NewBase("encode", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d), logger.Nop, h, dir, OutgoingMessage{
		To:          []string{"+15551234567"},
		Attachments: []attachment.Input{{Path: textPath, ContentType: "text/plain"}},
	})
	e.Run()

	assert.Contains(t, h.sendStates, store.Sending)
	require.Len(t, d.queued, 1)
	assert.Equal(t, "send", d.queued[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, "m-send.req"))
	require.NoError(t, err)
	pdu, err := mms.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, pdu.SendReq)
	assert.Equal(t, []string{"+15551234567/TYPE=PLMN"}, pdu.SendReq.To)
}
