package workflow

// SweepNow runs one supervisor pass synchronously.
func (m *Manager) SweepNow() int {
	return m.supervisor.Sweep()
}
