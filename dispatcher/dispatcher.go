// Package dispatcher implements the single-threaded event loop that
// owns the task queue and the one bearer connection tasks transmit
// over.
package dispatcher

import (
	"sort"
	"time"

	"github.com/nuntium/mmsengine/connman"
	"github.com/nuntium/mmsengine/logger"
	"github.com/nuntium/mmsengine/task"
)

// Done is notified when the dispatcher becomes idle: nothing left in
// its queue, ConnMan not busy, and no connection held. The Handler's
// Busy state is not consulted, and a task already taken off the queue
// to run or transmit does not count as pending work.
type Done interface {
	DispatcherIdle()
}

// Dispatcher owns the task queue and at most one Connection. All of
// its bookkeeping runs on a single goroutine; Queue/Cancel are the
// only methods safe to call from other goroutines.
type Dispatcher struct {
	log     logger.Logger
	connMan connman.ConnMan
	idle    time.Duration
	done    Done

	events chan func()
	quit   chan struct{}

	queue []task.Task
	conn  connman.Connection

	idleTimer *time.Timer
}

// New builds a Dispatcher. Call Run in its own goroutine to start the
// event loop.
func New(log logger.Logger, connMan connman.ConnMan, idle time.Duration, done Done) *Dispatcher {
	if log == nil {
		log = logger.Nop
	}
	return &Dispatcher{
		log:     log.With("dispatcher"),
		connMan: connMan,
		idle:    idle,
		done:    done,
		events:  make(chan func(), 64),
		quit:    make(chan struct{}),
	}
}

// TaskQueue implements task.Delegate: a task queuing a follow-up task
// (e.g. Notification queuing Retrieve) marshals onto the event loop.
func (d *Dispatcher) TaskQueue(t task.Task) {
	d.post(func() { d.enqueue(t) })
}

// TaskStateChanged implements task.Delegate: any task state
// transition re-runs the scheduling pass.
func (d *Dispatcher) TaskStateChanged(t task.Task) {
	d.post(func() { d.runLoop() })
}

// Queue adds t to the pending queue. Safe to call from any goroutine.
func (d *Dispatcher) Queue(t task.Task) {
	d.post(func() { d.enqueue(t) })
}

// Cancel cancels every task whose id equals id; an empty id cancels
// everything and closes the connection immediately.
func (d *Dispatcher) Cancel(id string) {
	d.post(func() { d.cancel(id) })
}

// Run drives the event loop until Stop is called. Call it from its
// own goroutine.
func (d *Dispatcher) Run() {
	for {
		select {
		case fn := <-d.events:
			fn()
		case <-d.quit:
			return
		}
	}
}

// Stop ends the event loop after its current iteration.
func (d *Dispatcher) Stop() { close(d.quit) }

func (d *Dispatcher) post(fn func()) {
	select {
	case d.events <- fn:
	case <-d.quit:
	}
}

func (d *Dispatcher) enqueue(t task.Task) {
	d.queue = append(d.queue, t)
	t.Run()
	d.runLoop()
}

func (d *Dispatcher) cancel(id string) {
	for _, t := range d.queue {
		if id == "" || t.ID() == id {
			t.Cancel()
		}
	}
	if id == "" && d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
	d.runLoop()
}

// runLoop sorts the queue, picks and advances whatever is runnable,
// manages the connection lifecycle, and emits the idle/done signal
// when nothing remains to do. It is idempotent: callers re-enter it
// after any state change rather than tracking incremental deltas.
func (d *Dispatcher) runLoop() {
	d.queue = removeDone(d.queue)
	d.sortQueue()

	for len(d.queue) > 0 {
		head := d.queue[0]

		switch head.State() {
		case task.Ready:
			d.queue = d.queue[1:]
			head.Run()
			d.sortQueue()
			continue
		case task.Done:
			d.queue = d.queue[1:]
			continue
		case task.NeedConnection, task.NeedUserConnection:
			if d.conn != nil && d.conn.IMSI() == head.IMSI() && d.conn.State() == connman.Open {
				d.queue = d.queue[1:]
				head.Transmit(d.conn)
				d.sortQueue()
				continue
			}
			d.ensureConnection(head)
			return
		default:
			// Transmitting/Working/Pending/Sleep: owned by a callback
			// elsewhere; nothing to do until it fires.
			return
		}
	}

	d.manageIdleTimer()
	d.signalDoneIfIdle()
}

func (d *Dispatcher) ensureConnection(head task.Task) {
	if d.conn != nil && d.conn.IMSI() != head.IMSI() {
		d.conn.Close()
		d.conn = nil
	}
	if d.conn != nil {
		return // already opening/open for this IMSI; wait for a state change
	}
	kind := connman.KindDefault
	if head.State() == task.NeedUserConnection {
		kind = connman.KindUser
	}
	conn, err := d.connMan.OpenConnection(head.IMSI(), kind)
	if err != nil || conn == nil {
		d.log.Warn("no connection available for %s: %v", head.IMSI(), err)
		head.NetworkUnavailable()
		return
	}
	d.conn = conn
}

func (d *Dispatcher) manageIdleTimer() {
	active := d.conn != nil && anyNeedsConnection(d.queue)
	if active {
		if d.idleTimer != nil {
			d.idleTimer.Stop()
			d.idleTimer = nil
		}
		return
	}
	if d.conn == nil || d.idleTimer != nil || d.idle <= 0 {
		return
	}
	d.idleTimer = time.AfterFunc(d.idle, func() {
		d.post(func() {
			if d.conn != nil {
				d.conn.Close()
				d.conn = nil
			}
			d.idleTimer = nil
		})
	})
}

func (d *Dispatcher) signalDoneIfIdle() {
	if d.conn != nil || len(d.queue) > 0 || d.connMan.Busy() {
		return
	}
	if d.done != nil {
		d.done.DispatcherIdle()
	}
}

func anyNeedsConnection(q []task.Task) bool {
	for _, t := range q {
		switch t.State() {
		case task.NeedConnection, task.NeedUserConnection, task.Transmitting:
			return true
		}
	}
	return false
}

func removeDone(q []task.Task) []task.Task {
	out := make([]task.Task, 0, len(q))
	for _, t := range q {
		if t.State() != task.Done {
			out = append(out, t)
		}
	}
	return out
}

// sortQueue applies the §4.9 ordering rules ahead of every pick.
func (d *Dispatcher) sortQueue() {
	connIMSI := ""
	connOpen := d.conn != nil && d.conn.State() == connman.Open
	if d.conn != nil {
		connIMSI = d.conn.IMSI()
	}
	sort.SliceStable(d.queue, func(i, j int) bool {
		a, b := d.queue[i], d.queue[j]
		if connOpen {
			at, bt := a.State() == task.Transmitting, b.State() == task.Transmitting
			if at != bt {
				return at
			}
		}
		if a.Priority() != b.Priority() {
			return a.Priority() < b.Priority()
		}
		if connOpen {
			am, bm := a.IMSI() == connIMSI, b.IMSI() == connIMSI
			if am != bm {
				return am
			}
		}
		ar, br := isRunnable(a), isRunnable(b)
		if ar != br {
			return ar
		}
		aw, bw := wantsConnection(a), wantsConnection(b)
		if aw != bw {
			return aw
		}
		return a.CreatedAt() < b.CreatedAt()
	})
}

func isRunnable(t task.Task) bool {
	return t.State() == task.Ready || t.State() == task.Done
}

func wantsConnection(t task.Task) bool {
	switch t.State() {
	case task.NeedConnection, task.NeedUserConnection:
		return true
	}
	return false
}
