// Package scheduler keeps the named timers of the network core in a
// min-heap ordered by trigger time. It has no goroutine of its own: the
// owner calls Due once per tick and acts on the names that fired.
//
// A timer is one-shot, repeats at a fixed interval (Every) or follows a
// cron expression (CronExpr) evaluated with gronx.
package scheduler
