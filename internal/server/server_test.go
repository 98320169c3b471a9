package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IYouKnow/zfs-stats/internal/assets"
	"github.com/IYouKnow/zfs-stats/internal/logging"
	"github.com/IYouKnow/zfs-stats/internal/zfs"
	"github.com/IYouKnow/zfs-stats/pkg/user"
)

type fakeStats struct {
	stats *zfs.Stats
	err   error
	calls int
}

func (f *fakeStats) Stats(ctx context.Context) (*zfs.Stats, error) {
	f.calls++
	return f.stats, f.err
}

func newTestServer(t *testing.T, src StatsSource) (*Server, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	ui := assets.New(fstest.MapFS{
		"index.html": {Data: []byte("<html>ui</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	})
	return New(":0", src, ui, log), hook
}

func TestZFSEndpoint(t *testing.T) {
	st := zfs.Aggregate(zfs.ListOutput{Datasets: map[string]zfs.Dataset{
		"a": {Name: "tank", Type: zfs.TypeFilesystem, Pool: "tank",
			Properties: zfs.DatasetProperties{Used: zfs.Property{Value: "1G"}, Available: zfs.Property{Value: "3G"}}},
	}})
	src := &fakeStats{stats: &st}
	s, _ := newTestServer(t, src)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zfs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1.00G", got["total_used"])
	assert.Equal(t, "3.00G", got["total_available"])
	assert.Equal(t, []any{"tank"}, got["pools"])

	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/zfs", nil))
	assert.Equal(t, 2, src.calls, "every request lists again")
}

func TestZFSEndpointError(t *testing.T) {
	src := &fakeStats{err: errors.New("zfs command failed: no pools available")}
	s, hook := newTestServer(t, src)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zfs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no pools available")

	var sawError bool
	for _, e := range hook.AllEntries() {
		sawError = sawError || e.Level == logrus.ErrorLevel
	}
	assert.True(t, sawError)
}

func TestStatic(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	h := s.Handler()

	for path, body := range map[string]string{
		"/":           "<html>ui</html>",
		"/app.js":     "console.log(1)",
		"/pools/tank": "<html>ui</html>",
		"/index.html": "<html>ui</html>",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, body, rec.Body.String(), path)
		assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"), path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticWithoutIndex(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	s.Assets = assets.New(fstest.MapFS{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "index.html not embedded")
}

func TestBasicAuth(t *testing.T) {
	store, err := user.Open(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	s, _ := newTestServer(t, &fakeStats{stats: &zfs.Stats{}})
	s.UserStore = store
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zfs", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "no users means no auth")

	require.NoError(t, store.Add("admin", "pw"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/zfs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req := httptest.NewRequest(http.MethodGet, "/api/zfs", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/zfs", nil)
	req.SetBasicAuth("admin", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	s, hook := newTestServer(t, &fakeStats{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "abc-123", hook.LastEntry().Data["request_id"])
	assert.Equal(t, 200, hook.LastEntry().Data["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "zfs_stats_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	s.Metrics = reg

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zfs_stats_test_total 1")
}

func TestLogStream(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	s.Logs = logging.NewBroadcaster(10)
	s.Logs.Publish("before subscribe")

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/logs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, `{"message":"before subscribe"}`, readEvent(t, r))

	s.Logs.Publish(`live "quoted"`)
	assert.Equal(t, `{"message":"live \"quoted\""}`, readEvent(t, r))
}

func TestLogStreamDisabled(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	blank, err := r.ReadString('\n')
	if err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, "\n", blank)
	return strings.TrimSuffix(strings.TrimPrefix(line, "data: "), "\n")
}

func TestShutdownEndsLogStreams(t *testing.T) {
	s, _ := newTestServer(t, &fakeStats{})
	s.Logs = logging.NewBroadcaster(1)
	s.Logs.Publish("hello")
	s.MaxConns = 4

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, `{"message":"hello"}`, readEvent(t, bufio.NewReader(resp.Body)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-served)
}
