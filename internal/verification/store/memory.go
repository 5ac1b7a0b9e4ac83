package store

import (
	"context"
	"sort"
	"sync"

	"dana/internal/verification/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// InMemory keeps verifications in a map keyed by id, with the one-per-actor
// rule enforced on save.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.VerificationID]models.NGOVerification
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.VerificationID]models.NGOVerification)}
}

func (s *InMemory) Save(_ context.Context, verification *models.NGOVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.ActorID == verification.ActorID && existing.ID != verification.ID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.records[verification.ID] = *verification
	return nil
}

func (s *InMemory) FindByID(_ context.Context, verificationID id.VerificationID) (*models.NGOVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[verificationID]; ok {
		return &record, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByActor(_ context.Context, actorID id.ActorID) (*models.NGOVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.ActorID == actorID {
			r := record
			return &r, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.NGOVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.NGOVerification
	for _, record := range s.records {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.ActorID != "" && record.ActorID.String() != filter.ActorID {
			continue
		}
		r := record
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
