package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dana/internal/donation/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// InMemory keeps donations, locations, and food items in maps. One mutex
// covers everything, which gives Execute the same per-donation serialization
// the postgres store gets from SELECT ... FOR UPDATE.
type InMemory struct {
	mu        sync.RWMutex
	donations map[id.DonationID]models.Donation
	locations map[id.LocationID]models.PickupLocation
	items     map[id.DonationID][]models.FoodItem
}

func NewInMemory() *InMemory {
	return &InMemory{
		donations: make(map[id.DonationID]models.Donation),
		locations: make(map[id.LocationID]models.PickupLocation),
		items:     make(map[id.DonationID][]models.FoodItem),
	}
}

func (s *InMemory) Create(_ context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donation.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	stored := *donation
	stored.Items = nil
	stored.Location = nil
	s.donations[donation.ID] = stored
	if len(donation.Items) > 0 {
		s.items[donation.ID] = append([]models.FoodItem(nil), donation.Items...)
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, donationID id.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donation, ok := s.donations[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	donation.Items = append([]models.FoodItem(nil), s.items[donationID]...)
	return &donation, nil
}

// Execute loads the donation under the write lock, runs validate, and
// persists the result of mutate. Concurrent claims on the same donation
// serialize here: the loser revalidates against the winner's state and gets
// the conflict the transition rules produce.
func (s *InMemory) Execute(_ context.Context, donationID id.DonationID, validate func(*models.Donation) error, mutate func(*models.Donation)) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	donation, ok := s.donations[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	donation.Items = append([]models.FoodItem(nil), s.items[donationID]...)
	if err := validate(&donation); err != nil {
		return nil, err
	}
	mutate(&donation)
	stored := donation
	stored.Items = nil
	stored.Location = nil
	s.donations[donationID] = stored
	return &donation, nil
}

func (s *InMemory) Delete(_ context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.donations, donationID)
	delete(s.items, donationID)
	return nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Donation
	for _, donation := range s.donations {
		if !matches(donation, filter) {
			continue
		}
		d := donation
		d.Items = append([]models.FoodItem(nil), s.items[d.ID]...)
		out = append(out, &d)
	}
	sortDonations(out, filter.Ordering)
	return out, nil
}

// ListExpirable returns non-terminal donations whose expiry date has passed.
func (s *InMemory) ListExpirable(_ context.Context, now time.Time) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Donation
	for _, donation := range s.donations {
		if donation.Status.Terminal() {
			continue
		}
		if donation.ExpiryDate == nil || donation.ExpiryDate.After(now) {
			continue
		}
		d := donation
		out = append(out, &d)
	}
	return out, nil
}

// FindOrCreateLocation reuses an existing location with the same address,
// matched case-insensitively.
func (s *InMemory) FindOrCreateLocation(_ context.Context, input models.LocationInput) (*models.PickupLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(input.Address)
	for _, location := range s.locations {
		if strings.ToLower(location.Address) == needle {
			l := location
			return &l, nil
		}
	}
	location := models.PickupLocation{
		ID:        id.NewLocationID(),
		Address:   input.Address,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	s.locations[location.ID] = location
	return &location, nil
}

func (s *InMemory) FindLocation(_ context.Context, locationID id.LocationID) (*models.PickupLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	location, ok := s.locations[locationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &location, nil
}

func matches(donation models.Donation, filter models.ListFilter) bool {
	if filter.Status != "" && donation.Status != filter.Status {
		return false
	}
	if filter.DonorID != "" && donation.DonorID.String() != filter.DonorID {
		return false
	}
	if filter.NgoID != "" && (donation.NgoID == nil || donation.NgoID.String() != filter.NgoID) {
		return false
	}
	if filter.RecipientID != "" && (donation.RecipientID == nil || donation.RecipientID.String() != filter.RecipientID) {
		return false
	}
	if filter.ExpiresBefore != nil {
		if donation.ExpiryDate == nil || donation.ExpiryDate.After(*filter.ExpiresBefore) {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(donation.Title + " " + donation.Description + " " + donation.FoodType)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func sortDonations(donations []*models.Donation, ordering string) {
	less := func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	}
	switch ordering {
	case "pickup_time":
		less = func(i, j int) bool { return donations[i].PickupTime.Before(donations[j].PickupTime) }
	case "-pickup_time":
		less = func(i, j int) bool { return donations[i].PickupTime.After(donations[j].PickupTime) }
	case "created_at":
		less = func(i, j int) bool { return donations[i].CreatedAt.Before(donations[j].CreatedAt) }
	}
	sort.Slice(donations, less)
}
