package scheduler

import (
	"testing"
	"time"
)

func TestHeapPushPopOrdering(t *testing.T) {
	h := &scheduleHeap{}
	base := time.Now()

	heapPush(h, ScheduleEvent{Name: "late", TriggerAt: base.Add(3 * time.Second)})
	heapPush(h, ScheduleEvent{Name: "early", TriggerAt: base.Add(1 * time.Second)})
	heapPush(h, ScheduleEvent{Name: "middle", TriggerAt: base.Add(2 * time.Second)})

	for _, want := range []string{"early", "middle", "late"} {
		if got := heapPop(h).Name; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestHeapEqualTimesKeepInsertionOrder(t *testing.T) {
	h := &scheduleHeap{}
	same := time.Now()

	heapPush(h, ScheduleEvent{Name: "a", TriggerAt: same, seq: 1})
	heapPush(h, ScheduleEvent{Name: "b", TriggerAt: same, seq: 2})
	heapPush(h, ScheduleEvent{Name: "c", TriggerAt: same, seq: 3})

	for _, want := range []string{"a", "b", "c"} {
		if got := heapPop(h).Name; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestHeapRemoveByName(t *testing.T) {
	h := &scheduleHeap{}
	base := time.Now()
	heapPush(h, ScheduleEvent{Name: "a", TriggerAt: base.Add(time.Second)})
	heapPush(h, ScheduleEvent{Name: "b", TriggerAt: base.Add(2 * time.Second)})
	heapPush(h, ScheduleEvent{Name: "c", TriggerAt: base.Add(3 * time.Second)})

	e, ok := heapRemoveByName(h, "b")
	if !ok || e.Name != "b" {
		t.Fatalf("expected to remove b, got %v %v", e.Name, ok)
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 items after removal, got %d", h.Len())
	}
	if _, ok := heapRemoveByName(h, "missing"); ok {
		t.Error("removal of a missing name should fail")
	}
	if first := heapPop(h); first.Name != "a" {
		t.Errorf("expected a, got %s", first.Name)
	}
}
