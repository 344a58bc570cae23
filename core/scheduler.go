package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// TimerList is a wake-time ordered list of timers. Handlers run from
// Dispatch and may move their own WakeTime forward before asking to be
// rescheduled.
type TimerList struct {
	head *Timer
}

// Schedule adds a timer to the list
func (l *TimerList) Schedule(t *Timer) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	l.insert(t)
}

// insert places t in sorted order by WakeTime
func (l *TimerList) insert(t *Timer) {
	if l.head == nil || before(t.WakeTime, l.head.WakeTime) {
		t.Next = l.head
		l.head = t
		return
	}

	current := l.head
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Cancel removes t if it is scheduled. Returns true if it was found.
func (l *TimerList) Cancel(t *Timer) bool {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	for p := &l.head; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return true
		}
	}
	return false
}

// Pending returns the number of scheduled timers
func (l *TimerList) Pending() int {
	n := 0
	for t := l.head; t != nil; t = t.Next {
		n++
	}
	return n
}

// Dispatch runs every timer whose WakeTime is at or before now.
func (l *TimerList) Dispatch(now uint32) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	for l.head != nil && TimeAfter(now, l.head.WakeTime) {
		timer := l.head
		l.head = timer.Next
		timer.Next = nil

		if timer.Handler(timer) == SF_RESCHEDULE {
			l.insert(timer)
		}
	}
}

func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// Periodic returns a timer that calls fn every period ticks starting at
// start. A handler that falls behind clock skips the missed periods instead
// of running them back to back.
func Periodic(clock Clock, start, period uint32, fn func()) *Timer {
	return &Timer{
		WakeTime: start,
		Handler: func(t *Timer) uint8 {
			fn()
			t.WakeTime += period
			if now := clock.Millis(); before(t.WakeTime, now) && period > 0 {
				t.WakeTime = now + period
			}
			return SF_RESCHEDULE
		},
	}
}
