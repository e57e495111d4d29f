package kit

import "sync"

// SceneGraphInstancingPath is the renderer flag enabling scene-graph
// instancing for cloned env prims. Process-wide, like every setting here.
const SceneGraphInstancingPath = "/persistent/renderer/useSceneGraphInstancing"

// SettingsRegistry is a carb-style registry of slash-delimited setting
// paths. One registry exists per process, shared by every app and world.
type SettingsRegistry struct {
	mu     sync.RWMutex
	values map[string]any
}

var processSettings = &SettingsRegistry{values: make(map[string]any)}

// Settings returns the process-wide registry.
func Settings() *SettingsRegistry {
	return processSettings
}

func (r *SettingsRegistry) Set(path string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[path] = value
}

func (r *SettingsRegistry) Get(path string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[path]
	return v, ok
}

func (r *SettingsRegistry) GetBool(path string) bool {
	v, ok := r.Get(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (r *SettingsRegistry) GetString(path string) string {
	v, ok := r.Get(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
