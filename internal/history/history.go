// Package history keeps the linear undo/redo timeline of serialized editor
// states.
package history

// DefaultCapacity is the number of states kept when none is configured.
const DefaultCapacity = 50

// Manager is a bounded list of states with a cursor at the current one.
// It is not safe for concurrent use; the owning editor serialises access.
type Manager struct {
	capacity int
	entries  []string
	cursor   int
}

// NewManager returns a history seeded with the initial state.
func NewManager(capacity int, seed string) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Manager{capacity: capacity}
	m.Reset(seed)
	return m
}

// Reset drops every entry and starts over from seed.
func (m *Manager) Reset(seed string) {
	m.entries = []string{seed}
	m.cursor = 0
}

// Snapshot records state. It is a no-op when state equals the entry at the
// cursor; otherwise entries after the cursor are discarded, state is
// appended and the oldest entries are evicted above capacity.
func (m *Manager) Snapshot(state string) bool {
	if len(m.entries) > 0 && m.entries[m.cursor] == state {
		return false
	}
	m.entries = append(m.entries[:m.cursor+1], state)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]string(nil), m.entries[over:]...)
	}
	m.cursor = len(m.entries) - 1
	return true
}

// Undo moves the cursor back and returns the state to restore.
func (m *Manager) Undo() (string, bool) {
	if !m.CanUndo() {
		return "", false
	}
	m.cursor--
	return m.entries[m.cursor], true
}

// Redo moves the cursor forward and returns the state to restore.
func (m *Manager) Redo() (string, bool) {
	if !m.CanRedo() {
		return "", false
	}
	m.cursor++
	return m.entries[m.cursor], true
}

func (m *Manager) CanUndo() bool { return m.cursor > 0 }

func (m *Manager) CanRedo() bool { return m.cursor < len(m.entries)-1 }

// Current returns the entry at the cursor.
func (m *Manager) Current() string { return m.entries[m.cursor] }

func (m *Manager) Len() int { return len(m.entries) }

func (m *Manager) Cursor() int { return m.cursor }

func (m *Manager) Capacity() int { return m.capacity }

// Entries returns a copy of the timeline, oldest first.
func (m *Manager) Entries() []string {
	return append([]string(nil), m.entries...)
}
