package task

import (
	"testing"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveHTTPDoneReportsDeferredOnRetry(t *testing.T) {
	h := &fakeHandler{}
	dir := t.TempDir()
	r := NewRetrieve(NewBase("retrieve", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, "http://mmsc.example/m/1", false, false)
	r.HTTPDone(HTTPResult{Retry: true})

	assert.Equal(t, []store.ReceiveState{store.Deferred}, h.receiveStates)
}

func TestRetrieveHTTPDoneReportsDownloadErrorOnFailure(t *testing.T) {
	h := &fakeHandler{}
	dir := t.TempDir()
	r := NewRetrieve(NewBase("retrieve", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, dir, "http://mmsc.example/m/1", false, false)
	r.HTTPDone(HTTPResult{Err: assertError{}})

	assert.Equal(t, []store.ReceiveState{store.DownloadError}, h.receiveStates)
}

func TestRetrieveHTTPDoneQueuesDecodeOnSuccess(t *testing.T) {
	h := &fakeHandler{}
	d := &recordingDelegate{}
	dir := t.TempDir()
	r := NewRetrieve(NewBase("retrieve", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d), logger.Nop, h, dir, "http://mmsc.example/m/1", false, true)
	r.HTTPDone(HTTPResult{BodyPath: dir + "/m-retrieve.conf"})

	require.Len(t, d.queued, 1)
	assert.Equal(t, "decode", d.queued[0].Name())
	assert.Contains(t, h.receiveStates, store.Decoding)
}
