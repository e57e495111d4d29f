package kit

import (
	"fmt"
	"sync"
)

// Extension is an optional host component with a startup/shutdown
// lifecycle, addressed by a dotted ID.
type Extension interface {
	ID() string
	Startup() error
	Shutdown()
}

type extensionEntry struct {
	ext     Extension
	enabled bool
}

type ExtensionManager struct {
	mu      sync.Mutex
	entries map[string]*extensionEntry
	order   []string
}

func newExtensionManager() *ExtensionManager {
	return &ExtensionManager{entries: make(map[string]*extensionEntry)}
}

// Register adds an extension and starts it immediately.
func (m *ExtensionManager) Register(ext Extension) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := ext.ID()
	if _, ok := m.entries[id]; ok {
		return fmt.Errorf("extension %s already registered", id)
	}
	if err := ext.Startup(); err != nil {
		return fmt.Errorf("startup extension %s: %w", id, err)
	}
	m.entries[id] = &extensionEntry{ext: ext, enabled: true}
	m.order = append(m.order, id)
	return nil
}

// SetExtensionEnabledImmediate toggles an extension synchronously,
// running its startup or shutdown before returning.
func (m *ExtensionManager) SetExtensionEnabledImmediate(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("unknown extension %s", id)
	}
	if entry.enabled == enabled {
		return nil
	}
	if enabled {
		if err := entry.ext.Startup(); err != nil {
			return fmt.Errorf("startup extension %s: %w", id, err)
		}
	} else {
		entry.ext.Shutdown()
	}
	entry.enabled = enabled
	return nil
}

func (m *ExtensionManager) IsExtensionEnabled(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	return ok && entry.enabled
}

// shutdownAll disables every extension in reverse registration order.
func (m *ExtensionManager) shutdownAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		entry := m.entries[m.order[i]]
		if entry.enabled {
			entry.ext.Shutdown()
			entry.enabled = false
		}
	}
}
