package netman

// ActionKind is a queued network action.
type ActionKind int

const (
	ActionInit ActionKind = iota
	ActionDownload
	ActionKeypress
	ActionFrame
	ActionSave
	numActions
)

func (k ActionKind) String() string {
	switch k {
	case ActionInit:
		return "init"
	case ActionDownload:
		return "download"
	case ActionKeypress:
		return "keypress"
	case ActionFrame:
		return "frame"
	case ActionSave:
		return "save"
	default:
		return "unknown"
	}
}

// Action is one queued action. Key is set for ActionKeypress.
type Action struct {
	Kind ActionKind
	Key  byte
}

// dispatchOrder lists the actions Next may hand out, highest priority
// first. Init and save have their own paths.
var dispatchOrder = [...]ActionKind{ActionDownload, ActionKeypress, ActionFrame}

// Queue holds at most one pending action of each kind and the shared
// delay counter.
type Queue struct {
	pending [numActions]bool
	key     byte
	delay   int
}

// Push queues a. Pushing a queued kind again only updates its key.
func (q *Queue) Push(a Action) {
	if a.Kind < 0 || a.Kind >= numActions {
		return
	}
	q.pending[a.Kind] = true
	if a.Kind == ActionKeypress {
		q.key = a.Key
	}
}

// Pending reports whether an action of kind k is queued.
func (q *Queue) Pending(k ActionKind) bool {
	if k < 0 || k >= numActions {
		return false
	}
	return q.pending[k]
}

// Any reports whether any action is queued.
func (q *Queue) Any() bool {
	for _, p := range q.pending {
		if p {
			return true
		}
	}
	return false
}

// Take removes a queued action of kind k and reports whether there was one.
func (q *Queue) Take(k ActionKind) bool {
	if !q.Pending(k) {
		return false
	}
	q.pending[k] = false
	return true
}

// Next removes and returns the highest-priority dispatchable action.
func (q *Queue) Next() (Action, bool) {
	for _, k := range dispatchOrder {
		if q.Take(k) {
			a := Action{Kind: k}
			if k == ActionKeypress {
				a.Key = q.key
				q.key = 0
			}
			return a, true
		}
	}
	return Action{}, false
}

// Delay returns the remaining hold ticks.
func (q *Queue) Delay() int { return q.delay }

// SetDelay holds dispatch for n ticks.
func (q *Queue) SetDelay(n int) {
	if n < 0 {
		n = 0
	}
	q.delay = n
}

// hold consumes one tick of delay and reports whether the tick is held.
func (q *Queue) hold() bool {
	if q.delay > 0 {
		q.delay--
		return true
	}
	return false
}

// Clear drops every queued action and the delay.
func (q *Queue) Clear() {
	*q = Queue{}
}
