package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/indexnow"
	"go-nursejobs-pipeline/internal/logger"
)

type sliceQueue struct {
	items []indexnow.Item
	err   error
}

func (q *sliceQueue) Push(_ context.Context, items ...indexnow.Item) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, items...)
	return nil
}

func (q *sliceQueue) Pop(context.Context, time.Duration) (*indexnow.Item, error) { return nil, nil }

func (q *sliceQueue) Len(context.Context) (int64, error) { return int64(len(q.items)), q.err }

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func init() { gin.SetMode(gin.TestMode) }

func TestHealth(t *testing.T) {
	q := &sliceQueue{items: []indexnow.Item{{URL: "https://nurse.example/jobs/a"}}}
	w := do(newRouter(q, "nurse.example", logger.NewNop()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","queue_depth":1}`, w.Body.String())

	q.err = errors.New("redis down")
	w = do(newRouter(q, "nurse.example", logger.NewNop()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEnqueue(t *testing.T) {
	q := &sliceQueue{}
	r := newRouter(q, "nurse.example", logger.NewNop())

	w := do(r, http.MethodPost, "/indexnow/urls",
		`{"urls":["https://nurse.example/jobs/a","https://evil.example/x","not a url","https://nurse.example/jobs/b"]}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"queued":2,"rejected":["https://evil.example/x","not a url"]}`, w.Body.String())
	assert.Equal(t, []indexnow.Item{{URL: "https://nurse.example/jobs/a"}, {URL: "https://nurse.example/jobs/b"}}, q.items)
}

func TestEnqueueBadRequest(t *testing.T) {
	r := newRouter(&sliceQueue{}, "", logger.NewNop())
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/indexnow/urls", `{"urls":`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/indexnow/urls", `{}`).Code)
}

func TestEnqueueQueueDown(t *testing.T) {
	r := newRouter(&sliceQueue{err: errors.New("redis down")}, "", logger.NewNop())
	w := do(r, http.MethodPost, "/indexnow/urls", `{"urls":["https://nurse.example/jobs/a"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
