package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/bootstrap"
	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/database"
	productrepo "github.com/birkolabs/vitrin/internal/repository/product"
	serverhttp "github.com/birkolabs/vitrin/internal/server/http"
	catalog "github.com/birkolabs/vitrin/internal/service/catalog"
	"github.com/birkolabs/vitrin/internal/transport/http/middleware"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, bootstrap.EnsureSchema(context.Background(), db))

	svc := catalog.NewService(catalog.Params{
		Repository: productrepo.NewRepository(&database.Connections{Writer: db, Reader: db}),
		Config:     config.Config{},
		Logger:     zap.NewNop(),
	})

	cfg := config.Config{}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.PublicPath = "/uploads"

	e := serverhttp.NewEcho(cfg, nil, nil, zap.NewNop())

	// Guard defaults to pass-through without AUTH_REQUIRE_ADMIN_TOKEN.
	guard := middleware.NewAdminGuard(config.Config{}, nil)
	Register(e, NewHandler(svc), guard)
	return e
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec, envelope := doJSON(t, h, http.MethodPost, "/api/products",
		`{"name":"Ring A","category":"Altın","price":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]any)
	id := int64(data["id"].(float64))
	assert.Greater(t, id, int64(0))
	assert.Equal(t, "Ring A", data["name"])
	assert.Equal(t, 0.0, data["stock"])

	rec, envelope = doJSON(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, envelope["data"], 1)

	path := "/api/products/" + strconv.FormatInt(id, 10)

	rec, envelope = doJSON(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])

	rec, envelope = doJSON(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, envelope["success"])
	assert.NotNil(t, envelope["error"])

	rec, envelope = doJSON(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, envelope["data"])
}

func TestCreateProductRejectsMissingFields(t *testing.T) {
	h := newTestServer(t)

	rec, envelope := doJSON(t, h, http.MethodPost, "/api/products",
		`{"name":"Ring A","category":"Altın"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
}

func TestUpdateProductPartialPayload(t *testing.T) {
	h := newTestServer(t)

	_, envelope := doJSON(t, h, http.MethodPost, "/api/products",
		`{"name":"Kolye","category":"Gümüş","price":200,"stock":3}`)
	data := envelope["data"].(map[string]any)
	path := "/api/products/" + strconv.FormatInt(int64(data["id"].(float64)), 10)

	rec, envelope := doJSON(t, h, http.MethodPut, path, `{"price":260}`)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := envelope["data"].(map[string]any)
	assert.Equal(t, 260.0, updated["price"])
	assert.Equal(t, "Kolye", updated["name"])
	assert.Equal(t, 3.0, updated["stock"])
}
