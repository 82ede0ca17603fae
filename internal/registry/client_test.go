package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tailingsiq-risk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetFacility_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/facilities/fac-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"facility_id": "fac-1",
			"name":        "North Impoundment",
			"location":    "Pilbara",
			"type":        "tailings-dam",
			"owner":       "acme-mining",
			"status":      "active",
			"created_at":  1700000000.0,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())

	facility, err := client.GetFacility(context.Background(), "fac-1")

	require.NoError(t, err)
	assert.Equal(t, "fac-1", facility.FacilityID)
	assert.Equal(t, "North Impoundment", facility.Name)
	assert.Equal(t, domain.FacilityTypeTailingsDam, facility.Type)
	assert.Equal(t, domain.FacilityStatusActive, facility.Status)
	assert.True(t, facility.IsActive())
	assert.Equal(t, int64(1700000000), facility.CreatedAt.Unix())
}

func TestGetFacility_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	_, err := client.GetFacility(context.Background(), "missing")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, IsTransient(err))
}

func TestListFacilities_FiltersAsQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/facilities", r.URL.Path)
		assert.Equal(t, "acme-mining", r.URL.Query().Get("owner"))
		assert.Equal(t, "active", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"facility_id": "fac-1", "name": "North Impoundment", "type": "tailings-dam", "status": "active"},
			{"facility_id": "fac-2", "name": "South Cell", "type": "heap-leach", "status": "active"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	facilities, err := client.ListFacilities(context.Background(), &domain.FacilityFilters{
		Owner:  "acme-mining",
		Status: domain.FacilityStatusActive,
	})

	require.NoError(t, err)
	require.Len(t, facilities, 2)
	assert.Equal(t, "fac-1", facilities[0].FacilityID)
	assert.Equal(t, domain.FacilityTypeHeapLeach, facilities[1].Type)
}

func TestGetFacility_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	_, err := client.GetFacility(context.Background(), "fac-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.True(t, IsTransient(err))
}
