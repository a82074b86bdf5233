package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/mms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAckWritesReportAllowedFromFlag(t *testing.T) {
	dir := t.TempDir()
	ack := NewAck(NewBase("ack", "imsi", PriorityPostProcess, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, dir, true)
	assert.NotNil(t, ack)

	raw, err := os.ReadFile(filepath.Join(dir, "m-acknowledge.ind"))
	require.NoError(t, err)
	pdu, err := mms.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, pdu.AcknowledgeInd)
	assert.Equal(t, mms.Yes, pdu.AcknowledgeInd.ReportAllowed)
}

func TestAckWritesReportNotAllowedByDefault(t *testing.T) {
	dir := t.TempDir()
	NewAck(NewBase("ack", "imsi", PriorityPostProcess, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, dir, false)

	raw, err := os.ReadFile(filepath.Join(dir, "m-acknowledge.ind"))
	require.NoError(t, err)
	pdu, err := mms.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, mms.No, pdu.AcknowledgeInd.ReportAllowed)
}

func TestReadReportOmitsFromAndCarriesStatus(t *testing.T) {
	dir := t.TempDir()
	NewReadReport(NewBase("readreport", "imsi", PriorityPostProcess, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, dir, "msg-1", "+15551234567/TYPE=PLMN", mms.ReadStatusRead)

	raw, err := os.ReadFile(filepath.Join(dir, "m-read-rec.ind"))
	require.NoError(t, err)
	pdu, err := mms.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, pdu.ReadRecInd)
	assert.Equal(t, "msg-1", pdu.ReadRecInd.MessageID)
	assert.Equal(t, []string{"+15551234567/TYPE=PLMN"}, pdu.ReadRecInd.To)
	assert.Equal(t, mms.ReadStatusRead, pdu.ReadRecInd.ReadStatus)
	assert.Empty(t, pdu.ReadRecInd.From)
}

func TestNotifyRespCarriesTransactionIDAndStatus(t *testing.T) {
	dir := t.TempDir()
	NewNotifyResp(NewBase("notifyresp", "imsi", PriorityPostProcess, time.Now().Add(time.Minute), time.Second, nil), logger.Nop, dir, "txn-42", mms.DeliveryRejected)

	raw, err := os.ReadFile(filepath.Join(dir, "m-notifyresp.ind"))
	require.NoError(t, err)
	pdu, err := mms.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, pdu.NotifyRespInd)
	assert.Equal(t, "txn-42", pdu.TransactionID)
	assert.Equal(t, mms.DeliveryRejected, pdu.NotifyRespInd.Status)
}
