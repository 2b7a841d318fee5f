/*
Package session serializes access to recorded sessions.

A Manager wraps a TrialStore with per-session locks so that a running experiment and
concurrent HTTP readers or deleters in the same process never interleave.
*/
package session
