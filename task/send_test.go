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

type fakeHandler struct {
	sentID, sentMsgID string
	sendStates        []store.SendState
	sendDetails       []string
	receiveStates     []store.ReceiveState
	notifyID          string
	notifyErr         error
	receivedMsgs      []*mms.Message
	receivedErr       error
	deliveryReports   []store.ReportStatus
	readReports       []store.ReportStatus
}

func (f *fakeHandler) MessageNotify(imsi, from, subject string, expiry time.Time, pushBytes []byte) (string, error) {
	return f.notifyID, f.notifyErr
}
func (f *fakeHandler) MessageReceived(msg *mms.Message) error {
	f.receivedMsgs = append(f.receivedMsgs, msg)
	return f.receivedErr
}
func (f *fakeHandler) MessageReceiveStateChanged(id string, state store.ReceiveState) {
	f.receiveStates = append(f.receiveStates, state)
}
func (f *fakeHandler) MessageSendStateChanged(id string, state store.SendState, details string) {
	f.sendStates = append(f.sendStates, state)
	f.sendDetails = append(f.sendDetails, details)
}
func (f *fakeHandler) MessageSent(id, msgid string) { f.sentID, f.sentMsgID = id, msgid }
func (f *fakeHandler) DeliveryReport(imsi, msgid, recipient string, status store.ReportStatus) {
	f.deliveryReports = append(f.deliveryReports, status)
}
func (f *fakeHandler) ReadReport(imsi, msgid, recipient string, status store.ReportStatus) {
	f.readReports = append(f.readReports, status)
}
func (f *fakeHandler) Busy() bool { return false }

func writeSendConf(t *testing.T, path string, status mms.ResponseStatus, msgid string) {
	t.Helper()
	pdu := &mms.PDU{
		Type:     mms.MessageTypeSendConf,
		SendConf: &mms.SendConf{ResponseStatus: status, MessageID: msgid},
	}
	raw, err := mms.Encode(pdu)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func TestSendHTTPDoneReportsMessageSentOnOK(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "m-send.req.conf")
	writeSendConf(t, confPath, mms.ResponseOK, "srv-msg-1")

	h := &fakeHandler{}
	s := NewSend(NewBase("send", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, "local-1", filepath.Join(dir, "m-send.req"))
	s.HTTPDone(HTTPResult{StatusCode: 200, BodyPath: confPath})

	assert.Equal(t, "local-1", h.sentID)
	assert.Equal(t, "srv-msg-1", h.sentMsgID)
}

func TestSendHTTPDoneReportsRefused(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "m-send.req.conf")
	writeSendConf(t, confPath, mms.ResponseErrServiceDenied, "")

	h := &fakeHandler{}
	s := NewSend(NewBase("send", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, "local-1", filepath.Join(dir, "m-send.req"))
	s.HTTPDone(HTTPResult{StatusCode: 200, BodyPath: confPath})

	require.NotEmpty(t, h.sendStates)
	assert.Equal(t, store.Refused, h.sendStates[len(h.sendStates)-1])
}

func TestSendHTTPDoneIgnoresRetryableResult(t *testing.T) {
	h := &fakeHandler{}
	s := NewSend(NewBase("send", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, "local-1", "/nonexistent/m-send.req")
	s.HTTPDone(HTTPResult{Retry: true})

	assert.Empty(t, h.sendStates)
	assert.Empty(t, h.sentID)
}

func TestSendHTTPDoneReportsTransportError(t *testing.T) {
	h := &fakeHandler{}
	s := NewSend(NewBase("send", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, h, "local-1", "/nonexistent/m-send.req")
	s.HTTPDone(HTTPResult{Err: assertError{}})

	require.NotEmpty(t, h.sendStates)
	assert.Equal(t, store.SendError, h.sendStates[0])
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
