package task

import (
	"testing"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/nuntium/mmsengine/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedNotificationInd(t *testing.T, txn string) []byte {
	t.Helper()
	pdu := &mms.PDU{
		Type:          mms.MessageTypeNotificationInd,
		TransactionID: txn,
		NotificationInd: &mms.NotificationInd{
			From:            mms.From{Address: "+15551234567"},
			Subject:         "hello",
			MessageSize:     1024,
			ContentLocation: "http://mmsc.example/m/1",
		},
	}
	raw, err := mms.Encode(pdu)
	require.NoError(t, err)
	return raw
}

func TestNotificationIndDefersWhenHandlerReturnsNoID(t *testing.T) {
	h := &fakeHandler{notifyID: ""}
	d := &recordingDelegate{}
	n, err := NewNotification(NewBase("notification", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d), logger.Nop, h, encodedNotificationInd(t, "txn-1"), false, true)
	require.NoError(t, err)
	n.Run()

	assert.Contains(t, h.receiveStates, store.Deferred)
	assert.Equal(t, Done, n.State())
	assert.Empty(t, d.queued)
}

func TestNotificationIndQueuesRetrieveOnAcceptance(t *testing.T) {
	h := &fakeHandler{notifyID: "msg-7"}
	d := &recordingDelegate{}
	n, err := NewNotification(NewBase("notification", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d), logger.Nop, h, encodedNotificationInd(t, "txn-2"), false, true)
	require.NoError(t, err)
	n.Run()

	require.Len(t, d.queued, 1)
	assert.Equal(t, "retrieve", d.queued[0].Name())
	assert.Contains(t, h.receiveStates, store.Receiving)
}

func TestNotificationIndQueuesNotifyRespRejectedOnPermanentHandlerError(t *testing.T) {
	h := &fakeHandler{notifyErr: permanentNotifyError{}}
	d := &recordingDelegate{}
	n, err := NewNotification(NewBase("notification", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d), logger.Nop, h, encodedNotificationInd(t, "txn-3"), false, true)
	require.NoError(t, err)
	n.Run()

	require.Len(t, d.queued, 1)
	assert.Equal(t, "notifyresp", d.queued[0].Name())
	assert.Equal(t, Done, n.State())
}

type permanentNotifyError struct{}

func (permanentNotifyError) Error() string { return "rejected" }

func TestDeliveryIndReportsStatusPerRecipient(t *testing.T) {
	h := &fakeHandler{}
	n := &Notification{
		Base:    NewBase("notification", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil),
		log:     logger.Nop,
		handler: h,
		pdu: &mms.PDU{
			Type: mms.MessageTypeDeliveryInd,
			DeliveryInd: &mms.DeliveryInd{
				MessageID: "m-1",
				To:        []string{"+1555000001", "+1555000002"},
				Status:    mms.DeliveryRetrieved,
			},
		},
	}
	n.Run()

	require.Len(t, h.deliveryReports, 2)
	assert.Equal(t, store.ReportRetrieved, h.deliveryReports[0])
	assert.Equal(t, Done, n.State())
}

func TestReadOrigIndReportsStatusPerRecipient(t *testing.T) {
	h := &fakeHandler{}
	n := &Notification{
		Base:    NewBase("notification", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, nil),
		log:     logger.Nop,
		handler: h,
		pdu: &mms.PDU{
			Type: mms.MessageTypeReadOrigInd,
			ReadOrigInd: &mms.ReadOrigInd{
				MessageID:  "m-2",
				To:         []string{"+1555000003"},
				ReadStatus: mms.ReadStatusDeleted,
			},
		},
	}
	n.Run()

	require.Len(t, h.readReports, 1)
	assert.Equal(t, store.ReportDeleted, h.readReports[0])
}
