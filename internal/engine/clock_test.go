package engine

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSim struct {
	months atomic.Int32
	fail   atomic.Bool
}

func (f *fakeSim) SimulateMonth() error {
	if f.fail.Load() {
		return errors.New("broken")
	}
	f.months.Add(1)
	return nil
}

func (f *fakeSim) Month() int { return int(f.months.Load()) }

func TestSimDate(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{0, "Jan Year 1"},
		{11, "Dec Year 1"},
		{12, "Jan Year 2"},
		{14, "Mar Year 2"},
		{-3, "Jan Year 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SimDate(tt.month))
	}
}

func TestClockStepsUntilStopped(t *testing.T) {
	sim := &fakeSim{}
	c := NewClock(sim, time.Millisecond)
	var seen atomic.Int32
	c.OnMonth = func(month int) { seen.Store(int32(month)) }

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return seen.Load() >= 3 }, time.Second, time.Millisecond)
	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clock did not stop")
	}
	assert.False(t, c.Running())
}

func TestClockPausesAndSurvivesErrors(t *testing.T) {
	sim := &fakeSim{}
	sim.fail.Store(true)
	c := NewClock(sim, time.Millisecond)
	var called atomic.Bool
	c.OnMonth = func(int) { called.Store(true) }

	go c.Run()
	defer c.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, called.Load())
	assert.Equal(t, 0, sim.Month())

	c.Pause()
	assert.Equal(t, 0.0, c.Speed())
	time.Sleep(10 * time.Millisecond)
	sim.fail.Store(false)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, sim.Month())

	c.SetSpeed(4)
	require.Eventually(t, func() bool { return called.Load() }, time.Second, time.Millisecond)
}
