package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dana/internal/actor/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// InMemory keeps actors in a map. It favors clarity over performance and
// backs unit tests plus the database-less demo mode.
type InMemory struct {
	mu     sync.RWMutex
	actors map[id.ActorID]models.Actor
}

func NewInMemory() *InMemory {
	return &InMemory{actors: make(map[id.ActorID]models.Actor)}
}

func (s *InMemory) Create(_ context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.actors {
		if existing.ExternalID == actor.ExternalID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.actors[actor.ID] = *actor
	return nil
}

func (s *InMemory) Update(_ context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.actors[actor.ID] = *actor
	return nil
}

func (s *InMemory) FindByID(_ context.Context, actorID id.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if actor, ok := s.actors[actorID]; ok {
		return &actor, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByExternalID(_ context.Context, externalID string) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, actor := range s.actors {
		if actor.ExternalID == externalID {
			return &actor, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) SetVerified(_ context.Context, actorID id.ActorID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return sentinel.ErrNotFound
	}
	actor.Verified = verified
	s.actors[actorID] = actor
	return nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Actor
	for _, actor := range s.actors {
		if !matches(actor, filter) {
			continue
		}
		a := actor
		out = append(out, &a)
	}
	sortActors(out, filter.Ordering)
	return out, nil
}

func sortActors(actors []*models.Actor, ordering string) {
	less := func(i, j int) bool {
		return actors[i].CreatedAt.After(actors[j].CreatedAt)
	}
	switch ordering {
	case "email":
		less = func(i, j int) bool { return actors[i].Email < actors[j].Email }
	case "-email":
		less = func(i, j int) bool { return actors[i].Email > actors[j].Email }
	case "created_at":
		less = func(i, j int) bool { return actors[i].CreatedAt.Before(actors[j].CreatedAt) }
	}
	sort.Slice(actors, less)
}

func matches(actor models.Actor, filter models.ListFilter) bool {
	if filter.Role != "" && actor.Role != filter.Role {
		return false
	}
	if filter.Verified != nil && actor.Verified != *filter.Verified {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(actor.Email + " " + actor.PhoneNumber + " " + actor.Address)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
