package world

import (
	"fmt"
	"sync"
)

// Stage is the scene container: a root layer of prim entries keyed by
// path. Worlds open a fresh stage at construction.
type Stage struct {
	root *Layer
}

func NewStage() *Stage {
	return &Stage{root: newLayer()}
}

func (s *Stage) RootLayer() *Layer { return s.root }

func (s *Stage) DefinePrim(path, kind string) error {
	return s.root.define(path, kind)
}

// Layer holds prim entries. Clearing the root layer before host
// shutdown suppresses spurious stage-teardown warnings.
type Layer struct {
	mu    sync.Mutex
	prims map[string]string
}

func newLayer() *Layer {
	return &Layer{prims: make(map[string]string)}
}

func (l *Layer) define(path, kind string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.prims[path]; ok {
		return fmt.Errorf("prim %s already defined", path)
	}
	l.prims[path] = kind
	return nil
}

func (l *Layer) Has(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.prims[path]
	return ok
}

func (l *Layer) PrimCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prims)
}

func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prims = make(map[string]string)
}
