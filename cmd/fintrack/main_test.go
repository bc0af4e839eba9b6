package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "orphan-user", "version"})
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fintrack dev\n", out)
}

func TestMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "fintrack.db")
	out, err := execute(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "schema version "), out)
	assert.FileExists(t, dbPath)
}

func TestOrphanUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	owner := core.UserID(7)
	c, err := repo.CreateCategory(context.Background(), core.Category{Name: "Food", Owner: &owner})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	t.Setenv("DATA_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_DB_PATH", dbPath)
	out, err := execute(t, "orphan-user", "7")
	require.NoError(t, err)
	assert.Equal(t, "orphaned 1 categories of user 7\n", out)

	repo, err = storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetCategory(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Owner)
}

func TestOrphanUserRejectsBadID(t *testing.T) {
	_, err := execute(t, "orphan-user", "abc")
	assert.EqualError(t, err, `invalid user id "abc"`)

	_, err = execute(t, "orphan-user")
	assert.Error(t, err)
}

func TestNewApplicationServesCachedReports(t *testing.T) {
	cfg := &config.Config{
		Port:               "0",
		AuthHeader:         "X-User-ID",
		RateLimitPerMinute: 100,
		DataBackend:        config.BackendMemory,
		ReportCacheTTL:     time.Minute,
		ReportCacheSize:    16,
		LogLevel:           "error",
		LogFormat:          "text",
	}
	app := newApplication(context.Background(), cfg, log.Default(), memory.New())
	defer app.close()
	require.NotNil(t, app.janitor)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("X-User-ID", "1")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		app.server.Handler.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/category/add/", `{"name":"Food"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat struct{ ID int64 }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))

	rec = do(http.MethodGet, "/report/daily/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(http.MethodPost, "/transaction/add/"+jsonID(cat.ID)+"/",
		`{"title":"Lunch","amount":12.5,"transaction_type":"expense","description":"Sandwich","category":{"name":"Food"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// The write invalidated the cached empty report.
	rec = do(http.MethodGet, "/report/daily/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "Lunch", txs[0]["title"])
}

func TestNewApplicationWithoutCache(t *testing.T) {
	cfg := &config.Config{Port: "0", AuthHeader: "X-User-ID", DataBackend: config.BackendMemory}
	app := newApplication(context.Background(), cfg, log.Default(), memory.New())
	defer app.close()
	assert.Nil(t, app.janitor)
	assert.Empty(t, app.closers)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

type recordingSink struct {
	name  string
	order *[]string
	block chan struct{}
}

func (s recordingSink) Notify(ctx context.Context, _ core.Change) error {
	*s.order = append(*s.order, s.name)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestChangeSinksNotifyCacheBeforeBroker(t *testing.T) {
	var order []string
	cacheSink := recordingSink{name: "cache", order: &order}
	brokerSink := recordingSink{name: "broker", order: &order, block: make(chan struct{})}

	sinks := changeSinks(cacheSink, brokerSink)
	require.Len(t, sinks, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := sinks.Notify(ctx, core.Change{Kind: core.TransactionCreated, Owner: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The cache saw the change even though the broker never returned.
	assert.Equal(t, []string{"cache", "broker"}, order)
}

func TestChangeSinksSkipsMissingSinks(t *testing.T) {
	var order []string
	assert.Empty(t, changeSinks(nil, nil))
	assert.Len(t, changeSinks(nil, recordingSink{name: "broker", order: &order}), 1)
	assert.Len(t, changeSinks(recordingSink{name: "cache", order: &order}, nil), 1)
}
