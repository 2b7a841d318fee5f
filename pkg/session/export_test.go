package session

// OpenLocks reports the number of local lock entries still held in memory.
func OpenLocks(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
