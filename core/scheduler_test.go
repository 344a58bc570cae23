package core

import "testing"

func TestTimerListOrder(t *testing.T) {
	var list TimerList
	var fired []uint32

	record := func(tm *Timer) uint8 {
		fired = append(fired, tm.WakeTime)
		return SF_DONE
	}
	for _, wake := range []uint32{30, 10, 20} {
		list.Schedule(&Timer{WakeTime: wake, Handler: record})
	}

	list.Dispatch(15)
	if len(fired) != 1 || fired[0] != 10 {
		t.Fatalf("Expected only timer 10 to fire, got %v", fired)
	}

	list.Dispatch(30)
	if len(fired) != 3 || fired[1] != 20 || fired[2] != 30 {
		t.Errorf("Expected timers 20 and 30 in order, got %v", fired)
	}
	if list.Pending() != 0 {
		t.Errorf("Expected empty list, got %d pending", list.Pending())
	}
}

func TestTimerListWrap(t *testing.T) {
	var list TimerList
	count := 0
	list.Schedule(&Timer{WakeTime: 5, Handler: func(*Timer) uint8 { count++; return SF_DONE }})

	// 0xfffffff0 is before 5 once the counter wraps
	list.Dispatch(0xfffffff0)
	if count != 0 {
		t.Errorf("Expected timer to wait across wrap, fired %d times", count)
	}
	list.Dispatch(5)
	if count != 1 {
		t.Errorf("Expected timer to fire after wrap, fired %d times", count)
	}
}

func TestTimerReschedule(t *testing.T) {
	var list TimerList
	clock := NewManualClock(0)
	ticks := 0
	list.Schedule(Periodic(clock, 0, 10, func() { ticks++ }))

	for i := 0; i < 5; i++ {
		list.Dispatch(clock.Millis())
		clock.Advance(10)
	}
	if ticks != 5 {
		t.Errorf("Expected 5 ticks, got %d", ticks)
	}

	// a long stall runs the handler once, not once per missed period
	clock.Advance(1000)
	list.Dispatch(clock.Millis())
	if ticks != 6 {
		t.Errorf("Expected 6 ticks after stall, got %d", ticks)
	}
}

func TestTimerCancel(t *testing.T) {
	var list TimerList
	a := &Timer{WakeTime: 1, Handler: func(*Timer) uint8 { return SF_DONE }}
	b := &Timer{WakeTime: 2, Handler: func(*Timer) uint8 { return SF_DONE }}
	list.Schedule(a)
	list.Schedule(b)

	if !list.Cancel(a) {
		t.Fatal("Expected cancel to find timer")
	}
	if list.Cancel(a) {
		t.Error("Expected second cancel to miss")
	}
	if list.Pending() != 1 {
		t.Errorf("Expected 1 pending, got %d", list.Pending())
	}
}

func TestSystemClock(t *testing.T) {
	SetTime(1234)
	defer SetTime(0)

	var clock Clock = SystemClock{}
	if got := clock.Millis(); got != 1234 {
		t.Errorf("Expected 1234, got %d", got)
	}
	if !TimeAfter(GetTime(), 0xfffffff0) {
		t.Errorf("Expected wrap-safe comparison to treat 1234 as after 0xfffffff0")
	}
}
