package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrirent/internal/database"
	"agrirent/internal/middleware"
	"agrirent/internal/pkg/jwt"
	"agrirent/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = NearbyLimits{DefaultRadiusKm: 50, MaxRadiusKm: 500, MaxResults: 100}

func setupCatalog(t *testing.T, verifier *jwt.Service) (*gin.Engine, *repository.EquipmentRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewEquipmentRepository(db)
	h := NewHandler(NewService(repo, testLimits))

	router := gin.New()
	rental := router.Group("/api/v1/rental", middleware.Identity(verifier))
	h.RegisterRoutes(rental)
	return router, repo
}

func equipmentBody(owner, name string, lat, lng float64) map[string]any {
	return map[string]any{
		"owner_id":       owner,
		"owner_name":     "Anil",
		"owner_contact":  "+91 90000 00001",
		"name":           name,
		"description":    "45 HP",
		"category":       "tractor",
		"price_per_hour": 500,
		"images":         []string{"https://img.example/t.jpg"},
		"location":       map[string]any{"type": "Point", "coordinates": []float64{lng, lat}},
		"address":        "Main road",
		"district":       "Thrissur",
		"village":        "Ollur",
		"availability": []map[string]any{{
			"date": "2025-01-10",
			"slots": []map[string]any{
				{"id": "s1", "start_time": "10:00", "end_time": "13:00"},
				{"id": "s2", "start_time": "14:00", "end_time": "17:00"},
			},
		}},
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createEquipment(t *testing.T, router http.Handler, body map[string]any) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/rental/equipment", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestCreateAndGetEquipment(t *testing.T) {
	router, _ := setupCatalog(t, nil)
	id := createEquipment(t, router, equipmentBody("u1", "Tractor", 10.52, 76.21))

	w := doJSON(t, router, http.MethodGet, "/api/v1/rental/equipment/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Tractor", got["name"])
	assert.Equal(t, "Thrissur", got["district"])
	loc := got["location"].(map[string]any)
	assert.Equal(t, "Point", loc["type"])
	assert.Equal(t, []any{76.21, 10.52}, loc["coordinates"])
}

func TestCreateEquipment_Invalid(t *testing.T) {
	router, _ := setupCatalog(t, nil)

	badPoint := equipmentBody("u1", "Tractor", 10.52, 76.21)
	badPoint["location"] = map[string]any{"type": "Point", "coordinates": []float64{200, 10}}

	missingName := equipmentBody("u1", "", 10.52, 76.21)

	dupDate := equipmentBody("u1", "Tractor", 10.52, 76.21)
	dupDate["availability"] = []map[string]any{
		{"date": "2025-01-10", "slots": []map[string]any{{"id": "s1", "start_time": "10:00", "end_time": "13:00"}}},
		{"date": "2025-01-10", "slots": []map[string]any{{"id": "s2", "start_time": "14:00", "end_time": "17:00"}}},
	}

	noOwner := equipmentBody("", "Tractor", 10.52, 76.21)

	for name, body := range map[string]map[string]any{
		"bad point":      badPoint,
		"missing name":   missingName,
		"duplicate date": dupDate,
		"no owner":       noOwner,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/rental/equipment", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestGetEquipment_NotFound(t *testing.T) {
	router, _ := setupCatalog(t, nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/rental/equipment/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNearby(t *testing.T) {
	router, _ := setupCatalog(t, nil)
	// Thrissur town, Ollur (~7 km), Kochi (~66 km)
	near := createEquipment(t, router, equipmentBody("u1", "Tractor", 10.527, 76.214))
	mid := createEquipment(t, router, equipmentBody("u1", "Harvester", 10.470, 76.240))
	createEquipment(t, router, equipmentBody("u1", "Sprayer", 9.931, 76.267))

	w := doJSON(t, router, http.MethodGet, "/api/v1/rental/nearby?lat=10.527&lng=76.214&radius=20", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		DistanceKm float64 `json:"distance_km"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, near, items[0].ID)
	assert.Equal(t, mid, items[1].ID)
	assert.LessOrEqual(t, items[0].DistanceKm, items[1].DistanceKm)
	assert.LessOrEqual(t, items[1].DistanceKm, 20.0)

	// default radius of 50 km still excludes Kochi
	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/nearby?lat=10.527&lng=76.214", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestNearby_BadQuery(t *testing.T) {
	router, _ := setupCatalog(t, nil)

	for _, q := range []string{
		"lng=76.2",
		"lat=abc&lng=76.2",
		"lat=95&lng=76.2",
		"lat=10&lng=76.2&radius=-3",
		"lat=10&lng=76.2&radius=5000",
		"lat=10&lng=76.2&limit=0",
	} {
		w := doJSON(t, router, http.MethodGet, "/api/v1/rental/nearby?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestMyListingsAndDelete(t *testing.T) {
	router, _ := setupCatalog(t, nil)
	id := createEquipment(t, router, equipmentBody("u1", "Tractor", 10.52, 76.21))
	createEquipment(t, router, equipmentBody("u2", "Tiller", 10.52, 76.21))

	w := doJSON(t, router, http.MethodGet, "/api/v1/rental/my-listings?owner_id=u1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/rental/equipment/"+id+"?owner_id=u2", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Equipment not found or unauthorized")

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/equipment/"+id, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/rental/equipment/"+id+"?owner_id=u1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Equipment deleted"}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/equipment/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/my-listings", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyBookings(t *testing.T) {
	router, repo := setupCatalog(t, nil)
	id := createEquipment(t, router, equipmentBody("u1", "Tractor", 10.52, 76.21))

	ok, err := repo.MarkSlotBooked(context.Background(), id, "2025-01-10", "s2", "farmer-9")
	require.NoError(t, err)
	require.True(t, ok)

	w := doJSON(t, router, http.MethodGet, "/api/v1/rental/my-bookings?user_id=farmer-9", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rows []struct {
		EquipmentID string `json:"equipment_id"`
		Name        string `json:"name"`
		Date        string `json:"date"`
		Slot        struct {
			ID       string `json:"id"`
			IsBooked bool   `json:"is_booked"`
			BookedBy string `json:"booked_by"`
		} `json:"slot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].EquipmentID)
	assert.Equal(t, "2025-01-10", rows[0].Date)
	assert.Equal(t, "s2", rows[0].Slot.ID)
	assert.True(t, rows[0].Slot.IsBooked)
	assert.Equal(t, "farmer-9", rows[0].Slot.BookedBy)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/my-bookings?user_id=nobody", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestIdentityEnforced(t *testing.T) {
	verifier := jwt.New("secret", time.Hour)
	router, _ := setupCatalog(t, verifier)

	token, err := verifier.GenerateToken("u1", "Anil")
	require.NoError(t, err)

	body := equipmentBody("", "Tractor", 10.52, 76.21)
	w := doJSON(t, router, http.MethodPost, "/api/v1/rental/equipment", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/my-listings", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "u1", list[0]["owner_id"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/my-listings?owner_id=u2", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/rental/my-listings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
