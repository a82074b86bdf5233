// Package task implements the dispatcher's unit of work: a polymorphic
// task with a fixed state machine, retry/deadline handling, and
// cancellation, grounded on the teacher's Connection type (a single
// owner goroutine driving state forward, never regressing) generalised
// from one transport connection to an arbitrary long-lived job.
package task

import (
	"time"

	"github.com/google/uuid"
)

// State is a task's position in its lifecycle. Done is the only
// terminal state; every other state can still transition.
type State int

const (
	Ready State = iota
	NeedConnection
	NeedUserConnection
	Transmitting
	Working
	Pending
	Sleep
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case NeedConnection:
		return "NeedConnection"
	case NeedUserConnection:
		return "NeedUserConnection"
	case Transmitting:
		return "Transmitting"
	case Working:
		return "Working"
	case Pending:
		return "Pending"
	case Sleep:
		return "Sleep"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Priority is an ordering key of the dispatcher's queue: PriorityNormal
// tasks sort ahead of PriorityPostProcess ones.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityPostProcess
)

// DefaultMaxLifetime is the deadline granted to a task that does not
// tighten it to a PDU's own expiry (notification/retrieve tasks do).
const DefaultMaxLifetime = 600 * time.Second

// Delegate observes task lifecycle events and lets a task enqueue a
// continuation of its own (e.g. Notification enqueuing Retrieve).
type Delegate interface {
	TaskQueue(t Task)
	TaskStateChanged(t Task)
}

// Task is the capability set the dispatcher drives: Run starts or
// resumes work, Transmit is called once a connection is available for
// a task that asked for one, NetworkUnavailable reports that no bearer
// could be obtained, and Cancel aborts whatever is in flight.
type Task interface {
	Name() string
	ID() string
	SetID(id string)
	IMSI() string
	Priority() Priority
	State() State
	Deadline() time.Time
	Cancelled() bool
	CreatedAt() int64 // monotonic creation order, not wall-clock

	Run()
	Transmit(conn any)
	NetworkUnavailable()
	Cancel()
}

// Base is embedded by every concrete task; it implements the state
// machine, retry/deadline bookkeeping and delegate plumbing so
// concrete tasks only implement their own run/transmit logic.
type Base struct {
	name      string
	id        string
	imsi      string
	priority  Priority
	state     State
	deadline  time.Time
	cancelled bool
	created   int64
	delegate  Delegate

	retryInterval time.Duration
	wakeAt        time.Time
}

var creationCounter int64

// nextCreationOrder hands out a monotonically increasing sequence
// number for task creation order.
func nextCreationOrder() int64 {
	creationCounter++
	return creationCounter
}

// NewBase initializes a Base with an ephemeral uuid id (renamed by the
// caller once a real message id is allocated), the given deadline and
// retry interval.
func NewBase(name, imsi string, priority Priority, deadline time.Time, retryInterval time.Duration, delegate Delegate) Base {
	return Base{
		name:          name,
		id:            uuid.NewString(),
		imsi:          imsi,
		priority:      priority,
		state:         Ready,
		deadline:      deadline,
		created:       nextCreationOrder(),
		delegate:      delegate,
		retryInterval: retryInterval,
	}
}

func (b *Base) Name() string       { return b.name }
func (b *Base) ID() string         { return b.id }
func (b *Base) SetID(id string)    { b.id = id }
func (b *Base) IMSI() string       { return b.imsi }
func (b *Base) Priority() Priority { return b.priority }
func (b *Base) State() State       { return b.state }
func (b *Base) Deadline() time.Time { return b.deadline }
func (b *Base) Cancelled() bool    { return b.cancelled }
func (b *Base) CreatedAt() int64   { return b.created }
func (b *Base) WakeAt() time.Time  { return b.wakeAt }

// SetDeadline tightens the task's deadline, e.g. to a notification's
// expiry.
func (b *Base) SetDeadline(d time.Time) { b.deadline = d }

// transition moves the task to state s and notifies the delegate. It
// does not validate the transition graph itself — callers only invoke
// it from the legal call sites listed in the state machine.
func (b *Base) transition(s State) {
	if b.state == Done {
		return // terminal; never regress or re-fire
	}
	b.state = s
	if b.delegate != nil {
		b.delegate.TaskStateChanged(taskView{b})
	}
}

// taskView lets Base notify the delegate with something that carries
// Task's read-only accessors without requiring the concrete subclass
// to implement notification plumbing itself.
type taskView struct{ *Base }

func (taskView) Run()                 {}
func (taskView) Transmit(any)         {}
func (taskView) NetworkUnavailable()  {}
func (taskView) Cancel()              {}

// GoReady transitions to Ready.
func (b *Base) GoReady() { b.transition(Ready) }

// GoNeedConnection transitions to NeedConnection (or
// NeedUserConnection when user is true).
func (b *Base) GoNeedConnection(user bool) {
	if user {
		b.transition(NeedUserConnection)
	} else {
		b.transition(NeedConnection)
	}
}

// GoTransmitting transitions to Transmitting, called once the
// dispatcher hands the task an open, matching connection.
func (b *Base) GoTransmitting() { b.transition(Transmitting) }

// GoWorking transitions to Working, e.g. while Encode, Decode or
// Publish does its work.
func (b *Base) GoWorking() { b.transition(Working) }

// GoPending transitions to Pending while awaiting an external
// callback (a Handler decision).
func (b *Base) GoPending() { b.transition(Pending) }

// GoDone transitions to Done. Terminal: no further transitions fire.
func (b *Base) GoDone() { b.transition(Done) }

// Retry schedules a wakeup retryInterval in the future, capped by the
// remaining time before the deadline. If no time remains the task is
// cancelled (moved to Done) instead.
func (b *Base) Retry(now time.Time) {
	remaining := b.deadline.Sub(now)
	if remaining <= 0 {
		b.cancelled = true
		b.transition(Done)
		return
	}
	wait := b.retryInterval
	if wait > remaining {
		wait = remaining
	}
	b.wakeAt = now.Add(wait)
	b.transition(Sleep)
}

// WakeFromSleep transitions Sleep -> Ready; the dispatcher calls this
// when the scheduled wakeup fires.
func (b *Base) WakeFromSleep() {
	if b.state == Sleep {
		b.transition(Ready)
	}
}

// Cancel clears any pending wakeup and transitions to Done, setting
// the cancelled flag. Safe to call from any non-terminal state.
func (b *Base) Cancel() {
	if b.state == Done {
		return
	}
	b.cancelled = true
	b.wakeAt = time.Time{}
	b.transition(Done)
}

// Transmit is a no-op default for tasks that never ask for a
// connection (Decode, Publish, Encode); HTTP overrides it.
func (b *Base) Transmit(any) {}

// NetworkUnavailable is a no-op default for tasks that never ask for a
// connection; HTTP overrides it.
func (b *Base) NetworkUnavailable() {}

// Queue asks the delegate to register a continuation task.
func (b *Base) Queue(t Task) {
	if b.delegate != nil {
		b.delegate.TaskQueue(t)
	}
}
