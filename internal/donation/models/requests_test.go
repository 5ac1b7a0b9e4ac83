package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation(t *testing.T) {
	t.Run("nested object", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"title": "Bread",
			"location": {"address": "12 Market St", "latitude": 51.5}
		}`), &req))

		input, err := req.ResolveLocation()
		require.NoError(t, err)
		require.NotNil(t, input)
		assert.Equal(t, "12 Market St", input.Address)
		require.NotNil(t, input.Latitude)
		assert.Equal(t, 51.5, *input.Latitude)
	})

	t.Run("flattened dotted keys", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"title": "Bread",
			"location.address": "12 Market St",
			"location.longitude": -0.1
		}`), &req))

		input, err := req.ResolveLocation()
		require.NoError(t, err)
		require.NotNil(t, input)
		assert.Equal(t, "12 Market St", input.Address)
		require.NotNil(t, input.Longitude)
	})

	t.Run("nested wins over flattened", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"location": {"address": "Nested St"},
			"location.address": "Flat St"
		}`), &req))

		input, err := req.ResolveLocation()
		require.NoError(t, err)
		assert.Equal(t, "Nested St", input.Address)
	})

	t.Run("absent location resolves to nil", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{"title": "Bread"}`), &req))

		input, err := req.ResolveLocation()
		require.NoError(t, err)
		assert.Nil(t, input)
	})

	t.Run("empty nested address rejected", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{"location": {"address": "  "}}`), &req))

		_, err := req.ResolveLocation()
		require.Error(t, err)
	})

	t.Run("flat coordinates without address rejected", func(t *testing.T) {
		var req CreateDonationRequest
		require.NoError(t, json.Unmarshal([]byte(`{"location.latitude": 51.5}`), &req))

		_, err := req.ResolveLocation()
		require.Error(t, err)
	})
}

func TestUpdateRequestValidate(t *testing.T) {
	t.Run("unknown status rejected", func(t *testing.T) {
		status := Status("donated")
		req := UpdateRequest{Status: &status}
		require.Error(t, req.Validate())
	})

	t.Run("empty title rejected", func(t *testing.T) {
		title := ""
		req := UpdateRequest{Title: &title}
		require.Error(t, req.Validate())
	})

	t.Run("valid transition request", func(t *testing.T) {
		status := StatusClaimed
		req := UpdateRequest{Status: &status}
		require.NoError(t, req.Validate())
		assert.False(t, req.HasFieldEdits())
	})

	t.Run("field edits detected", func(t *testing.T) {
		title := "New title"
		req := UpdateRequest{Title: &title}
		assert.True(t, req.HasFieldEdits())
	})
}
