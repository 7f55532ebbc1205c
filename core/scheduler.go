package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1 // handler has moved WakeTime forward
)

// Scheduler runs timers from the poll loop. Time is whatever the caller
// advances it by; the App counts polls. Comparisons tolerate wraparound.
type Scheduler struct {
	list *Timer
	now  uint32
}

// Now returns the current scheduler time
func (s *Scheduler) Now() uint32 { return s.now }

// Add inserts t in wake order. Timers with equal wake times run in the
// order they were added.
func (s *Scheduler) Add(t *Timer) {
	if s.list == nil || timerBefore(t.WakeTime, s.list.WakeTime) {
		t.next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.next != nil && !timerBefore(t.WakeTime, current.next.WakeTime) {
		current = current.next
	}

	t.next = current.next
	current.next = t
}

// Remove unlinks t if it is scheduled
func (s *Scheduler) Remove(t *Timer) {
	for p := &s.list; *p != nil; p = &(*p).next {
		if *p == t {
			*p = t.next
			t.next = nil
			return
		}
	}
}

// Pending reports the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.list; t != nil; t = t.next {
		n++
	}
	return n
}

// Advance moves time forward and runs what became due
func (s *Scheduler) Advance(ticks uint32) {
	s.now += ticks
	s.Dispatch()
}

// Dispatch runs every timer with WakeTime <= now
func (s *Scheduler) Dispatch() {
	for s.list != nil && !timerBefore(s.now, s.list.WakeTime) {
		timer := s.list
		s.list = timer.next
		timer.next = nil

		if timer.Handler(timer) == SF_RESCHEDULE {
			s.Add(timer)
		}
	}
}

// timerBefore reports whether a is strictly earlier than b
func timerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
