package restaurant_api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/clock"
	"lunch-voting/internal/database"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"
	"lunch-voting/internal/restaurant/db"
	"lunch-voting/internal/restaurant/restaurant_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

var now = time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T, p *auth.Principal) (http.Handler, *restaurant.Service) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))

	log := logger.New(io.Discard, "test")
	svc := restaurant.NewService(&db.DB{Bun: bunDB}, clock.Fixed{T: now}, log)
	h := restaurant_api.NewHandler(svc, log)

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(req.Context(), *p)))
			})
		})
	}
	r.Route("/api", h.RegisterRoutes)
	return r, svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateRestaurant(t *testing.T) {
	admin, _ := setupRouter(t, &auth.Principal{UserID: "admin", Admin: true})

	rec := do(admin, "POST", "/api/restaurants", `{"name":"Pasta Co","owner_id":"owner-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Restaurant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Pasta Co", created.Name)

	rec = do(admin, "POST", "/api/restaurants", `{"name":"Pasta Co","owner_id":"owner-2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(admin, "POST", "/api/restaurants", `{"name":"X","owner_id":"o","stars":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unexpected fields")

	rec = do(admin, "POST", "/api/restaurants", `{"owner_id":"o"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(admin, "GET", "/api/restaurants", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pasta Co")
}

func TestCreateRestaurantRequiresAdmin(t *testing.T) {
	user, _ := setupRouter(t, &auth.Principal{UserID: "u1"})
	rec := do(user, "POST", "/api/restaurants", `{"name":"Pasta Co","owner_id":"u1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMenuEndpoints(t *testing.T) {
	owner, svc := setupRouter(t, &auth.Principal{UserID: "owner-1"})
	ctx := context.Background()
	r, err := svc.CreateRestaurant(ctx, models.RestaurantRequest{Name: "Pasta Co", OwnerID: "owner-1"})
	require.NoError(t, err)
	_, err = svc.CreateRestaurant(ctx, models.RestaurantRequest{Name: "Sushi", OwnerID: "owner-2"})
	require.NoError(t, err)

	rec := do(owner, "GET", "/api/restaurants/1/menu", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := `{"items":[{"name":"Carbonara","price":12.5},{"name":"Tiramisu","price":6,"description":"house"}]}`
	rec = do(owner, "POST", "/api/restaurants/1/menu", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var menu models.MenuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	assert.Equal(t, "2026-10-16", menu.Date)
	assert.Equal(t, r.ID, menu.RestaurantID)
	assert.Len(t, menu.Items, 2)

	rec = do(owner, "POST", "/api/restaurants/1/menu", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(owner, "POST", "/api/restaurants/1/menu", `{"date":"2026-10-17","items":[{"name":"Soup","price":-2}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(owner, "POST", "/api/restaurants/2/menu", `{"items":[]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(owner, "POST", "/api/restaurants/42/menu", `{"items":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(owner, "POST", "/api/restaurants/abc/menu", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(owner, "GET", "/api/restaurants/1/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var menus []models.MenuResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menus))
	require.Len(t, menus, 1)
	assert.Equal(t, "Carbonara", menus[0].Items[0].Name)

	rec = do(owner, "GET", "/api/restaurants/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menus))
	assert.Len(t, menus, 1)
}
