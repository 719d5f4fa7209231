package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
	"github.com/AntonStoeckl/library-circulation-go/server"
)

func Test_Idempotency_ReplaysFirstResponse(t *testing.T) {
	// arrange
	srv := newTestServer(t)
	body := remote.CreateBookRequest{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"}

	// act
	first := send(t, srv, http.MethodPost, "/api/books", body, remote.IdempotencyKeyHeader, "key-1")
	second := send(t, srv, http.MethodPost, "/api/books", body, remote.IdempotencyKeyHeader, "key-1")

	// assert
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(server.ReplayedHeader))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(server.ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func Test_Idempotency_DifferentKeyExecutesAgain(t *testing.T) {
	// arrange
	srv := newTestServer(t)
	body := remote.CreateBookRequest{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"}
	require.Equal(t, http.StatusCreated, send(t, srv, http.MethodPost, "/api/books", body, remote.IdempotencyKeyHeader, "key-1").Code)

	// act
	rec := send(t, srv, http.MethodPost, "/api/books", body, remote.IdempotencyKeyHeader, "key-2")

	// assert
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Header().Get(server.ReplayedHeader))
}

func Test_Idempotency_SameKeyDifferentBodyExecutesAgain(t *testing.T) {
	// arrange
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, send(t, srv, http.MethodPost, "/api/books",
		remote.CreateBookRequest{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"}, remote.IdempotencyKeyHeader, "key-1").Code)

	// act
	rec := send(t, srv, http.MethodPost, "/api/books",
		remote.CreateBookRequest{ID: 2, Title: "Dune", Author: "Frank Herbert"}, remote.IdempotencyKeyHeader, "key-1")

	// assert
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get(server.ReplayedHeader))
}

func Test_Idempotency_ConcurrentRepeatsIssueOnce(t *testing.T) {
	// arrange
	srv := newTestServer(t)
	addBook(t, srv, 1, "The Hobbit", "J.R.R. Tolkien")
	body := remote.IssueRequest{BookID: 1, StudentName: "Ada", Days: 7}

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup

	// act
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = send(t, srv, http.MethodPost, "/api/issue", body, remote.IdempotencyKeyHeader, "issue-1").Code
		}(i)
	}
	wg.Wait()

	// assert
	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func Test_Idempotency_WithoutKeyPassesThrough(t *testing.T) {
	// arrange
	srv := newTestServer(t)
	addBook(t, srv, 1, "The Hobbit", "J.R.R. Tolkien")

	// act
	rec := send(t, srv, http.MethodPost, "/api/books", remote.CreateBookRequest{ID: 1, Title: "The Hobbit", Author: "J.R.R. Tolkien"})

	// assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_Idempotency_PanickingHandlerReleasesKey(t *testing.T) {
	// arrange
	cache := server.NewIdempotencyCache(time.Minute)
	t.Cleanup(cache.Stop)

	var calls atomic.Int32
	engine := gin.New()
	engine.Use(gin.RecoveryWithWriter(io.Discard))
	engine.POST("/books", cache.Middleware(), func(c *gin.Context) {
		if calls.Add(1) == 1 {
			panic("store exploded")
		}
		c.JSON(http.StatusCreated, remote.StatusResponse{Success: true})
	})

	post := func() *httptest.ResponseRecorder {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"id":1}`)).WithContext(ctx)
		req.Header.Set(remote.IdempotencyKeyHeader, "key-1")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		return rec
	}

	// act
	first := post()
	second := post()

	// assert
	assert.Equal(t, http.StatusInternalServerError, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(server.ReplayedHeader))
	assert.Equal(t, int32(2), calls.Load())
}
