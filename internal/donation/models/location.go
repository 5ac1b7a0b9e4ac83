package models

import (
	"strings"

	id "dana/pkg/domain"
	dErrors "dana/pkg/domain-errors"
)

// PickupLocation is a shared, deduplicated pickup address. Locations are
// matched case-insensitively on address and reused across donations.
type PickupLocation struct {
	ID        id.LocationID `json:"id"`
	Address   string        `json:"address"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
}

// LocationInput is the normalized pickup-location payload. Clients may send
// it either as a nested object or as flattened dotted keys; both collapse to
// this shape at the API boundary before the service ever sees it.
type LocationInput struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// FromNested builds a LocationInput from a nested location object.
func FromNested(address string, latitude, longitude *float64) (*LocationInput, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "location address cannot be empty")
	}
	return &LocationInput{Address: address, Latitude: latitude, Longitude: longitude}, nil
}

// FromFlattened builds a LocationInput from flattened "location.address"
// style fields. All-empty input means no location was supplied.
func FromFlattened(address string, latitude, longitude *float64) (*LocationInput, error) {
	if strings.TrimSpace(address) == "" && latitude == nil && longitude == nil {
		return nil, nil
	}
	return FromNested(address, latitude, longitude)
}
