package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/deepgram/assistkit/pkg/logger"
)

// Manager keeps the live assistants of this process, keyed by remote ID.
type Manager struct {
	mu           sync.RWMutex
	api          API
	defaultModel string
	options      []Option
	assistants   map[string]*Assistant
}

func NewManager(api API, defaultModel string, options ...Option) *Manager {
	return &Manager{
		api:          api,
		defaultModel: defaultModel,
		options:      options,
		assistants:   make(map[string]*Assistant),
	}
}

// Create creates a remote assistant and starts tracking it.
func (m *Manager) Create(ctx context.Context, opts Options) (*Assistant, error) {
	if opts.Model == "" {
		opts.Model = m.defaultModel
	}

	a, err := New(ctx, m.api, opts, m.options...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.assistants[a.ID()] = a
	m.mu.Unlock()
	return a, nil
}

func (m *Manager) Get(id string) (*Assistant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, exists := m.assistants[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAssistant, id)
	}
	return a, nil
}

// List returns the live assistants ordered by ID.
func (m *Manager) List() []*Assistant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]*Assistant, 0, len(m.assistants))
	for _, a := range m.assistants {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Delete closes the assistant and forgets it. A failed close keeps it tracked.
func (m *Manager) Delete(ctx context.Context, id string) error {
	a, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := a.Close(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.assistants, id)
	m.mu.Unlock()
	return nil
}

// Shutdown closes every live assistant, collecting the failures.
func (m *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	for _, a := range m.List() {
		if err := m.Delete(ctx, a.ID()); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		logger.Error(logger.ASSISTANT, "Shutdown left %d assistant(s) behind", len(errs))
	} else {
		logger.Info(logger.ASSISTANT, "All assistants closed")
	}
	return errors.Join(errs...)
}
