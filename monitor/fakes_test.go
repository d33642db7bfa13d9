// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package monitor

import (
	"context"
	"sync"

	"github.com/go-core-stack/slowmode/errors"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]*EntityConfig
	failErr error
	writes  int
}

func newFakeStore(rows ...*EntityConfig) *fakeStore {
	s := &fakeStore{rows: map[string]*EntityConfig{}}
	for _, r := range rows {
		s.rows[r.EntityID] = r.Clone()
	}
	return s
}

func (s *fakeStore) setFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *fakeStore) row(id string) *EntityConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[id]; ok {
		return r.Clone()
	}
	return nil
}

func (s *fakeStore) ListMonitoring(ctx context.Context) ([]*EntityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	var out []*EntityConfig
	for _, r := range s.rows {
		if r.Monitoring {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) ListGroupMonitoring(ctx context.Context, groupID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	var out []string
	for _, r := range s.rows {
		if r.Monitoring && r.GroupID == groupID {
			out = append(out, r.EntityID)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*EntityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	r, ok := s.rows[id]
	if !ok {
		return nil, errors.Wrapf(errors.NotFound, "channel %s not found", id)
	}
	return r.Clone(), nil
}

func (s *fakeStore) Insert(ctx context.Context, cfg *EntityConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if _, ok := s.rows[cfg.EntityID]; ok {
		return errors.Wrapf(errors.AlreadyExists, "channel %s already exists", cfg.EntityID)
	}
	s.rows[cfg.EntityID] = cfg.Clone()
	s.writes++
	return nil
}

func (s *fakeStore) SetMonitoring(ctx context.Context, id string, monitoring bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	r, ok := s.rows[id]
	if !ok {
		return errors.Wrapf(errors.NotFound, "channel %s not found", id)
	}
	r.Monitoring = monitoring
	s.writes++
	return nil
}

func (s *fakeStore) UpdateFields(ctx context.Context, cfg *EntityConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	r, ok := s.rows[cfg.EntityID]
	if !ok {
		s.rows[cfg.EntityID] = cfg.Clone()
		s.writes++
		return nil
	}
	r.PaceMin = cfg.PaceMin
	r.PaceMax = cfg.PaceMax
	r.WindowCapacity = cfg.WindowCapacity
	r.Sensitivity = cfg.Sensitivity
	s.writes++
	return nil
}

type fakeHost struct {
	mu          sync.Mutex
	paces       map[string]int
	unreachable map[string]bool
	applies     []int
	applyErr    error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		paces:       map[string]int{},
		unreachable: map[string]bool{},
	}
}

func (h *fakeHost) setUnreachable(id string, v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unreachable[id] = v
}

func (h *fakeHost) applied() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.applies...)
}

func (h *fakeHost) IsReachable(ctx context.Context, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.unreachable[id]
}

func (h *fakeHost) CurrentPace(ctx context.Context, id string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paces[id], nil
}

func (h *fakeHost) ApplyPace(ctx context.Context, id string, pace int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.applyErr != nil {
		return h.applyErr
	}
	h.paces[id] = pace
	h.applies = append(h.applies, pace)
	return nil
}

type fakeReleaser struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeReleaser) Release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

func (f *fakeReleaser) released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

// gatedHost holds every CurrentPace call until release is closed,
// reporting the channel on entered first
type gatedHost struct {
	*fakeHost
	entered chan string
	release chan struct{}
}

func newGatedHost() *gatedHost {
	return &gatedHost{
		fakeHost: newFakeHost(),
		entered:  make(chan string, 16),
		release:  make(chan struct{}),
	}
}

func (h *gatedHost) CurrentPace(ctx context.Context, id string) (int, error) {
	h.entered <- id
	<-h.release
	return h.fakeHost.CurrentPace(ctx, id)
}

func (h *gatedHost) pace(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paces[id]
}

// throttlingHost rejects every edit for lack of budget
type throttlingHost struct {
	*fakeHost
}

func (h *throttlingHost) ApplyPace(ctx context.Context, id string, pace int) error {
	return errors.Wrapf(errors.Throttled, "edit of %s throttled", id)
}
