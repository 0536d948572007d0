package scheduler

import "time"

// ScheduleEvent is one named timer in the heap.
type ScheduleEvent struct {
	// Name identifies the timer. Adding a name that is already scheduled
	// replaces the earlier timer.
	Name string
	// TriggerAt is when the timer fires next.
	TriggerAt time.Time
	// Every re-arms the timer that long after it fires. Zero means one-shot
	// unless CronExpr is set.
	Every time.Duration
	// CronExpr re-arms the timer at the next cron occurrence after it fires.
	CronExpr string

	seq uint64
}

// Recurring reports whether the timer re-arms after firing.
func (e ScheduleEvent) Recurring() bool {
	return e.Every > 0 || e.CronExpr != ""
}
