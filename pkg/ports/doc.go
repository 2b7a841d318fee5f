/*
Package ports defines the driven ports (interfaces) of the paradigm engine.

These interfaces decouple the driver loop from persistence, so completed trials can be
saved in memory, on disk or in Redis without the engine knowing which.

# Key Interfaces

  - TrialStore: Persists completed TrialRecords keyed by session and trial number.
  - SessionLister: Optional enumeration of stored sessions.
*/
package ports
