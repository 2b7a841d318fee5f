/*
Package machine implements the phase controller every experiment runs on.

A Machine holds the active and previous state, a LIFO stack of interrupted states,
a once-latch for entry actions, and a stopwatch that restarts on every transition.
It is polled once per frame by the driver loop:

	m.Once(showInstructions)
	if !calibrated {
		m.PushTo("CALIBRATE") // suspend whatever is running
	}
	if m.Expired(2 * time.Second) {
		m.NextTo("REACH")
	}

Interrupt states are left with Pop, which resumes exactly the state that was interrupted.
*/
package machine
