// Package memory provides an in-memory visitor repository, used by tests and
// available as a throwaway backend for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	"github.com/logiclens/gatepass-go/internal/domain/repositories"
)

// VisitorStore is a mutex-guarded map implementation of VisitorRepository.
type VisitorStore struct {
	mu      sync.Mutex
	records map[string]*visitor.Request
}

// NewVisitorStore creates an empty in-memory visitor store.
func NewVisitorStore() *VisitorStore {
	return &VisitorStore{
		records: make(map[string]*visitor.Request),
	}
}

var _ repositories.VisitorRepository = (*VisitorStore)(nil)

func (s *VisitorStore) Create(_ context.Context, req *visitor.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[req.ID] = req.Clone()
	return nil
}

func (s *VisitorStore) FindByID(_ context.Context, id string) (*visitor.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.records[id]
	if !ok {
		return nil, visitor.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *VisitorStore) FindByToken(_ context.Context, token string) (*visitor.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.records {
		if req.ApprovalToken == token {
			return req.Clone(), nil
		}
	}
	return nil, visitor.ErrTokenNotFound
}

func (s *VisitorStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.records {
		if req.VisitorCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *VisitorStore) ConditionalUpdateStatus(_ context.Context, id string, expected, next visitor.Status, fields *repositories.DecisionFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.records[id]
	if !ok || req.Status != expected {
		return false, nil
	}

	req.Status = next
	req.UpdatedAt = time.Now().UTC()
	if fields != nil {
		d := fields.DecisionAt
		req.DecisionAt = &d
		req.ApprovedBy = fields.ApprovedBy
		req.UpdatedAt = fields.DecisionAt
	}
	return true, nil
}

func (s *VisitorStore) ListAll(_ context.Context) ([]*visitor.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*visitor.Request, 0, len(s.records))
	for _, req := range s.records {
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *VisitorStore) ListOverduePending(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, req := range s.records {
		if req.Status == visitor.StatusPending && !req.ExpiresAt.IsZero() && now.After(req.ExpiresAt) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
