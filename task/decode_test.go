package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReportsErrorWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	h := &fakeHandler{}
	d := NewDecodeTask(NewBase("decode", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, filepath.Join(dir, "missing"), false, false)
	d.Run()

	assert.Contains(t, h.receiveStates, store.DecodingError)
	assert.Equal(t, Done, d.State())
}

func TestDecodeReportsErrorWhenNotARetrieveConf(t *testing.T) {
	dir := t.TempDir()
	pduPath := filepath.Join(dir, "m-retrieve.conf")
	raw, err := mms.Encode(&mms.PDU{
		Type: mms.MessageTypeSendReq,
		SendReq: &mms.SendReq{
			To:          []string{"+15551234567/TYPE=PLMN"},
			Date:        time.Now(),
			ContentType: mms.ContentType{Type: "text", Subtype: "plain"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pduPath, raw, 0o644))

	h := &fakeHandler{}
	d := NewDecodeTask(NewBase("decode", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, pduPath, false, false)
	d.Run()

	assert.Contains(t, h.receiveStates, store.DecodingError)
	assert.Equal(t, Done, d.State())
}

func TestDecodeReportsErrorOnGarbageData(t *testing.T) {
	dir := t.TempDir()
	pduPath := filepath.Join(dir, "m-retrieve.conf")
	require.NoError(t, os.WriteFile(pduPath, []byte{0xff, 0x00, 0x01}, 0o644))

	h := &fakeHandler{}
	d := NewDecodeTask(NewBase("decode", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, pduPath, false, false)
	d.Run()

	assert.Contains(t, h.receiveStates, store.DecodingError)
	assert.Equal(t, Done, d.State())
}
