package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerOrder(t *testing.T) {
	var s Scheduler
	var ran []string
	mk := func(name string, wake uint32) *Timer {
		return &Timer{WakeTime: wake, Handler: func(*Timer) uint8 {
			ran = append(ran, name)
			return SF_DONE
		}}
	}

	s.Add(mk("c", 30))
	s.Add(mk("a", 10))
	s.Add(mk("b1", 20))
	s.Add(mk("b2", 20))
	assert.Equal(t, 4, s.Pending())

	s.Advance(15)
	assert.Equal(t, []string{"a"}, ran)
	s.Advance(15)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ran)
	assert.Zero(t, s.Pending())
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	count := 0
	tick := &Timer{WakeTime: 3, Handler: func(t *Timer) uint8 {
		count++
		t.WakeTime += 3
		return SF_RESCHEDULE
	}}
	s.Add(tick)

	for i := 0; i < 10; i++ {
		s.Advance(1)
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, uint32(12), tick.WakeTime)

	s.Remove(tick)
	s.Advance(10)
	assert.Equal(t, 3, count)
	s.Remove(tick)
}

func TestSchedulerWraparound(t *testing.T) {
	s := Scheduler{now: 0xFFFFFFF0}
	fired := false
	s.Add(&Timer{WakeTime: 0x00000005, Handler: func(*Timer) uint8 {
		fired = true
		return SF_DONE
	}})

	s.Advance(0x10)
	assert.False(t, fired)
	s.Advance(0x5)
	assert.True(t, fired)
}
