// Package testutil contains miscellaneous testing utilities.
package testutil

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httputil"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap" // Logging.
	"go.uber.org/zap/zaptest"
	gock "gopkg.in/h2non/gock.v1" // HTTP request mocking.
)

// TestLogger returns a zap Logger that logs all messages to the given testing.TB.
// It replaces the zap global Logger and redirects the stdlib log to the test Logger.
func TestLogger(t testing.TB) (logger *zap.Logger, teardown func()) {
	logger = zaptest.NewLogger(t)
	undoGlobals := zap.ReplaceGlobals(logger)
	undoStdLog := zap.RedirectStdLog(logger)
	teardown = func() {
		undoStdLog()
		undoGlobals()
		_ = logger.Sync()
	}
	return
}

// GockLogObserver returns a gock.ObserverFunc that logs HTTP requests to a zap Logger.
func GockLogObserver(logger *zap.Logger) gock.ObserverFunc {
	return func(request *http.Request, mock gock.Mock) {
		bytes, _ := httputil.DumpRequestOut(request, true)
		logger.Debug("gock intercepted http request",
			zap.String("request", string(bytes)),
			zap.Bool("matches_mock", mock != nil),
		)
	}
}

// LoadTestData loads a file from the `testdata` directory relative to the CWD.
func LoadTestData(name string) string {
	path := filepath.Join("testdata", name)
	data, err := ioutil.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load test data file %s: %s", name, err))
	}
	return string(data)
}

// ClientTestSetup sets up zap test logging, intercepts HTTP requests using gock, and creates
// a context with the zap logger embedded.
func ClientTestSetup(t testing.TB) (ctx context.Context, logger *zap.Logger, teardown func()) {
	logger, teardownLogging := TestLogger(t)

	gock.Intercept()
	gock.Observe(GockLogObserver(logger))

	ctx, cancel := context.WithCancel(context.Background())

	teardown = func() {
		cancel()
		gock.OffAll()
		gock.Observe(nil)
		teardownLogging()
	}

	return
}

// RequestLog records the method and path of every HTTP request gock sees,
// in order.
type RequestLog struct {
	mu       sync.Mutex
	requests []string
}

// RecordRequests installs a gock observer that both logs (like GockLogObserver)
// and appends "METHOD /path" to the returned RequestLog.
// Call it after ClientTestSetup.
func RecordRequests(logger *zap.Logger) *RequestLog {
	l := &RequestLog{}
	logObserver := GockLogObserver(logger)
	gock.Observe(func(request *http.Request, mock gock.Mock) {
		logObserver(request, mock)
		l.mu.Lock()
		l.requests = append(l.requests, request.Method+" "+request.URL.Path)
		l.mu.Unlock()
	})
	return l
}

// Record appends entry to the log. Tests use it to interleave
// non-HTTP calls, like mocked remote commands, with the requests.
func (l *RequestLog) Record(entry string) {
	l.mu.Lock()
	l.requests = append(l.requests, entry)
	l.mu.Unlock()
}

// Requests returns a copy of the recorded requests.
func (l *RequestLog) Requests() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.requests))
	copy(out, l.requests)
	return out
}

// Compact returns the recorded requests with consecutive duplicates collapsed,
// which makes polling loops easier to assert on.
func (l *RequestLog) Compact() []string {
	var out []string
	for _, r := range l.Requests() {
		if len(out) == 0 || out[len(out)-1] != r {
			out = append(out, r)
		}
	}
	return out
}
