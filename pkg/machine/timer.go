package machine

import "time"

// Elapsed returns the time spent in the current state.
func (m *Machine) Elapsed() time.Duration {
	return m.clock().Sub(m.entered)
}

// ElapsedSeconds returns Elapsed in seconds.
func (m *Machine) ElapsedSeconds() float64 {
	return m.Elapsed().Seconds()
}

// ElapsedMSec returns Elapsed in milliseconds.
func (m *Machine) ElapsedMSec() float64 {
	return float64(m.Elapsed()) / float64(time.Millisecond)
}

// Expired reports whether at least d has passed since entering the current state.
func (m *Machine) Expired(d time.Duration) bool {
	return m.Elapsed() >= d
}

// ExpiredSeconds is Expired with the duration given in seconds.
func (m *Machine) ExpiredSeconds(s float64) bool {
	return m.ElapsedSeconds() >= s
}

// ExpiredMSec is Expired with the duration given in milliseconds.
func (m *Machine) ExpiredMSec(ms float64) bool {
	return m.ElapsedMSec() >= ms
}
