// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/monitor"
)

// Memory keeps channel configurations in process memory, used when no
// database is configured and in tests. Contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]*monitor.EntityConfig
}

// NewMemory allocates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		rows: map[string]*monitor.EntityConfig{},
	}
}

func (m *Memory) ListMonitoring(ctx context.Context) ([]*monitor.EntityConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []*monitor.EntityConfig{}
	for _, row := range m.rows {
		if row.Monitoring {
			list = append(list, row.Clone())
		}
	}
	slices.SortFunc(list, func(a, b *monitor.EntityConfig) int {
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return list, nil
}

func (m *Memory) ListGroupMonitoring(ctx context.Context, groupID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []string{}
	for id, row := range m.rows {
		if row.Monitoring && row.GroupID == groupID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Memory) Get(ctx context.Context, entityID string) (*monitor.EntityConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[entityID]
	if !ok {
		return nil, errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
	}
	return row.Clone(), nil
}

func (m *Memory) Insert(ctx context.Context, cfg *monitor.EntityConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[cfg.EntityID]; ok {
		return errors.Wrapf(errors.AlreadyExists, "channel %s already exists", cfg.EntityID)
	}
	m.rows[cfg.EntityID] = cfg.Clone()
	return nil
}

func (m *Memory) SetMonitoring(ctx context.Context, entityID string, monitoring bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[entityID]
	if !ok {
		return errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
	}
	row.Monitoring = monitoring
	return nil
}

func (m *Memory) UpdateFields(ctx context.Context, cfg *monitor.EntityConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[cfg.EntityID]
	if !ok {
		m.rows[cfg.EntityID] = cfg.Clone()
		return nil
	}
	row.PaceMin = cfg.PaceMin
	row.PaceMax = cfg.PaceMax
	row.WindowCapacity = cfg.WindowCapacity
	row.Sensitivity = cfg.Sensitivity
	return nil
}
