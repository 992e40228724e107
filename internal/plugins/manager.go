package plugins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager owns the live plugin instances.
type Manager struct {
	log     *zap.Logger
	mu      sync.RWMutex
	plugins map[sdk.PluginID]sdk.Plugin
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:     log.Named("plugins"),
		plugins: make(map[sdk.PluginID]sdk.Plugin),
	}
}

// Instantiate calls every registered constructor once, in registration
// order. If any of them fails, all failures are logged and returned
// together; the caller is expected to abort.
func (m *Manager) Instantiate(reg *Registry, sender sdk.Sender) error {
	var errs error
	for _, id := range reg.IDs() {
		ctor, _ := reg.Get(id)
		p, err := construct(ctor, sender, id)
		if err != nil {
			m.log.Error("could not instantiate plugin",
				zap.String("plugin", string(id)),
				zap.Error(err))
			errs = multierr.Append(errs, NewConstructorError(id, err))
			continue
		}
		if got := p.PluginID(); got != id {
			m.log.Warn("plugin reports a different id than it was given",
				zap.String("plugin", string(id)),
				zap.String("reported", string(got)))
		}

		m.mu.Lock()
		m.plugins[id] = p
		m.mu.Unlock()

		m.log.Info("plugin loaded", zap.String("plugin", string(id)))
	}
	return errs
}

func construct(ctor sdk.Constructor, sender sdk.Sender, id sdk.PluginID) (p sdk.Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("constructor panicked: %v", r)
		}
	}()
	p, err = ctor(sender, id)
	if err == nil && p == nil {
		err = errors.New("constructor returned no plugin")
	}
	return p, err
}

func (m *Manager) Get(id sdk.PluginID) (sdk.Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[id]
	return p, ok
}

// IDs returns the live plugin ids, sorted.
func (m *Manager) IDs() []sdk.PluginID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]sdk.PluginID, 0, len(m.plugins))
	for id := range m.plugins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// Shutdown closes every plugin in id order. A panicking Close is logged and
// does not stop the others.
func (m *Manager) Shutdown(st sdk.State) {
	for _, id := range m.IDs() {
		p, _ := m.Get(id)
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.Warn("plugin close panicked",
						zap.String("plugin", string(id)),
						zap.Any("panic", r))
				}
			}()
			p.Close(st)
		}()
		m.log.Debug("plugin closed", zap.String("plugin", string(id)))
	}
}
