package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuntium/mmsengine/connman"
	"github.com/nuntium/mmsengine/task"
)

type fakeConn struct {
	imsi  string
	state connman.ConnectionState
}

func (c *fakeConn) IMSI() string                    { return c.imsi }
func (c *fakeConn) MMSCURL() string                 { return "http://mmsc.example/" }
func (c *fakeConn) ProxyHostPort() string            { return "" }
func (c *fakeConn) NetIf() string                    { return "" }
func (c *fakeConn) State() connman.ConnectionState   { return c.state }
func (c *fakeConn) Close()                           { c.state = connman.Closed }

type fakeConnMan struct {
	conn *fakeConn
	busy bool
}

func (m *fakeConnMan) DefaultIMSI() string { return "1234" }
func (m *fakeConnMan) OpenConnection(imsi string, kind connman.Kind) (connman.Connection, error) {
	m.conn = &fakeConn{imsi: imsi, state: connman.Open}
	return m.conn, nil
}
func (m *fakeConnMan) Busy() bool { return m.busy }

type countingDone struct{ n int }

func (d *countingDone) DispatcherIdle() { d.n++ }

type fakeTask struct {
	task.Base
	transmitted bool
}

func (t *fakeTask) Run()                 { t.GoNeedConnection(false) }
func (t *fakeTask) Transmit(conn any)     { t.transmitted = true; t.GoDone() }
func (t *fakeTask) NetworkUnavailable()   { t.GoDone() }

func newFakeTask(d task.Delegate) *fakeTask {
	b := task.NewBase("fake", "1234", task.PriorityNormal, time.Now().Add(time.Minute), time.Second, d)
	return &fakeTask{Base: b}
}

func TestDispatcherOpensConnectionAndTransmits(t *testing.T) {
	cm := &fakeConnMan{}
	done := &countingDone{}
	d := New(nil, cm, time.Minute, done)
	go d.Run()
	defer d.Stop()

	ft := newFakeTask(d)
	d.Queue(ft)

	require.Eventually(t, func() bool { return ft.transmitted }, time.Second, time.Millisecond)
	assert.Equal(t, task.Done, ft.State())
}

func TestDispatcherSignalsIdleWhenNothingPending(t *testing.T) {
	cm := &fakeConnMan{}
	done := &countingDone{}
	d := New(nil, cm, time.Minute, done)
	go d.Run()
	defer d.Stop()

	d.post(func() { d.runLoop() })
	require.Eventually(t, func() bool { return done.n > 0 }, time.Second, time.Millisecond)
}
