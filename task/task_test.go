package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingDelegate struct {
	queued []Task
	states []State
}

func (r *recordingDelegate) TaskQueue(t Task)        { r.queued = append(r.queued, t) }
func (r *recordingDelegate) TaskStateChanged(t Task) { r.states = append(r.states, t.State()) }

func TestBaseTransitionIsNoOpOnceDone(t *testing.T) {
	d := &recordingDelegate{}
	b := NewBase("x", "imsi", PriorityNormal, time.Now().Add(time.Minute), time.Second, d)
	b.GoDone()
	b.GoReady()
	assert.Equal(t, Done, b.State())
}

func TestRetryCancelsPastDeadline(t *testing.T) {
	d := &recordingDelegate{}
	past := time.Now().Add(-time.Second)
	b := NewBase("x", "imsi", PriorityNormal, past, time.Second, d)
	b.Retry(time.Now())
	assert.Equal(t, Done, b.State())
	assert.True(t, b.Cancelled())
}

func TestRetryScheduledWakeupWithinDeadline(t *testing.T) {
	d := &recordingDelegate{}
	future := time.Now().Add(time.Hour)
	b := NewBase("x", "imsi", PriorityNormal, future, time.Second, d)
	b.Retry(time.Now())
	assert.Equal(t, Sleep, b.State())
	assert.False(t, b.Cancelled())
}

func TestCreationOrderIsMonotonic(t *testing.T) {
	d := &recordingDelegate{}
	a := NewBase("a", "imsi", PriorityNormal, time.Now(), time.Second, d)
	b := NewBase("b", "imsi", PriorityNormal, time.Now(), time.Second, d)
	assert.Less(t, a.CreatedAt(), b.CreatedAt())
}
