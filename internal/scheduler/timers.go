package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ErrInvalidCron is returned by Add for an expression gronx rejects.
var ErrInvalidCron = errors.New("scheduler: invalid cron expression")

// Timers is a set of named timers. It is not safe for concurrent use; the
// network core owns it and drives it from its tick.
type Timers struct {
	h   scheduleHeap
	seq uint64
}

// New creates an empty timer set.
func New() *Timers {
	return &Timers{}
}

// Add schedules e, replacing any timer with the same name.
func (t *Timers) Add(e ScheduleEvent) error {
	if e.CronExpr != "" && !gronx.IsValid(e.CronExpr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, e.CronExpr)
	}
	heapRemoveByName(&t.h, e.Name)
	t.seq++
	e.seq = t.seq
	heapPush(&t.h, e)
	return nil
}

// Remove cancels the named timer.
func (t *Timers) Remove(name string) bool {
	_, ok := heapRemoveByName(&t.h, name)
	return ok
}

// Postpone moves the named timer to at, keeping its recurrence.
func (t *Timers) Postpone(name string, at time.Time) bool {
	e, ok := heapRemoveByName(&t.h, name)
	if !ok {
		return false
	}
	e.TriggerAt = at
	heapPush(&t.h, e)
	return true
}

// Pending reports whether the named timer is scheduled.
func (t *Timers) Pending(name string) bool {
	for _, e := range t.h {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Next returns the earliest trigger time.
func (t *Timers) Next() (time.Time, bool) {
	if len(t.h) == 0 {
		return time.Time{}, false
	}
	return t.h[0].TriggerAt, true
}

// Len returns the number of scheduled timers.
func (t *Timers) Len() int { return len(t.h) }

// Due pops every timer whose trigger time is not after now and returns
// their names in firing order. Recurring timers are re-armed relative to
// now, so a late tick does not fire a backlog.
func (t *Timers) Due(now time.Time) []string {
	var fired []string
	var rearm []ScheduleEvent
	for len(t.h) > 0 && !t.h[0].TriggerAt.After(now) {
		e := heapPop(&t.h)
		fired = append(fired, e.Name)
		if next, ok := nextOccurrence(e, now); ok {
			e.TriggerAt = next
			rearm = append(rearm, e)
		}
	}
	for _, e := range rearm {
		heapPush(&t.h, e)
	}
	return fired
}

func nextOccurrence(e ScheduleEvent, now time.Time) (time.Time, bool) {
	switch {
	case e.Every > 0:
		return now.Add(e.Every), true
	case e.CronExpr != "":
		next, err := gronx.NextTickAfter(e.CronExpr, now, false)
		if err != nil {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

// AddCron schedules name at the first occurrence of expr after now. The
// timer re-arms at every later occurrence.
func (t *Timers) AddCron(name, expr string, now time.Time) error {
	if !gronx.IsValid(expr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	e := ScheduleEvent{Name: name, CronExpr: expr}
	next, ok := nextOccurrence(e, now)
	if !ok {
		return fmt.Errorf("%w: %q has no next occurrence", ErrInvalidCron, expr)
	}
	e.TriggerAt = next
	return t.Add(e)
}
