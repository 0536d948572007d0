package scheduler

import "container/heap"

// scheduleHeap implements container/heap.Interface for ScheduleEvent,
// earliest TriggerAt first. Equal times fire in insertion order.
type scheduleHeap []ScheduleEvent

func (h scheduleHeap) Len() int { return len(h) }

func (h scheduleHeap) Less(i, j int) bool {
	if h[i].TriggerAt.Equal(h[j].TriggerAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].TriggerAt.Before(h[j].TriggerAt)
}

func (h scheduleHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scheduleHeap) Push(x any) {
	*h = append(*h, x.(ScheduleEvent))
}

func (h *scheduleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *scheduleHeap, e ScheduleEvent) {
	heap.Push(h, e)
}

// heapPop removes the earliest event. Panics if the heap is empty.
func heapPop(h *scheduleHeap) ScheduleEvent {
	return heap.Pop(h).(ScheduleEvent)
}

// heapRemoveByName removes the event called name, reporting whether it was present.
func heapRemoveByName(h *scheduleHeap, name string) (ScheduleEvent, bool) {
	for i, e := range *h {
		if e.Name == name {
			return heap.Remove(h, i).(ScheduleEvent), true
		}
	}
	return ScheduleEvent{}, false
}
