package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AntonStoeckl/library-circulation-go/lending/remote"
)

const cleanupInterval = time.Hour

// IdempotencyCache stores the responses of writes that carried an idempotency key.
type IdempotencyCache struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopOnce sync.Once
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status      int
	contentType string
	body        []byte
	expiresAt   time.Time
	inFlight    bool
	stored      bool
	done        chan struct{}
}

// NewIdempotencyCache creates a cache keeping responses for ttl and starts its cleanup loop.
func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	cache := &IdempotencyCache{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	go cache.cleanupLoop(cleanupInterval)

	return cache
}

// Stop stops the cleanup goroutine.
func (m *IdempotencyCache) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *IdempotencyCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopChan:
			return
		}
	}
}

func (m *IdempotencyCache) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, entry := range m.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(m.entries, key)
		}
	}
}

// claim returns the entry for key and whether the caller owns it and must execute the request.
func (m *IdempotencyCache) claim(key string) (*idempotencyEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok {
		if entry.inFlight || entry.expiresAt.After(time.Now()) {
			return entry, false
		}
	}

	entry := &idempotencyEntry{inFlight: true, done: make(chan struct{})}
	m.entries[key] = entry

	return entry, true
}

// complete stores the response of an owned entry. Server errors are not stored, so a retry executes again.
func (m *IdempotencyCache) complete(key string, entry *idempotencyEntry, status int, contentType string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status >= http.StatusInternalServerError {
		delete(m.entries, key)
	} else {
		entry.status = status
		entry.contentType = contentType
		entry.body = body
		entry.expiresAt = time.Now().Add(m.ttl)
		entry.stored = true
	}

	entry.inFlight = false
	close(entry.done)
}

// Middleware executes a keyed write once per key, method, path and body, and replays its response.
// Requests without an Idempotency-Key header pass through.
func (m *IdempotencyCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader(remote.IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respond(c, http.StatusBadRequest, MsgInvalidRequest)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := fingerprint(idempotencyKey, c.Request.Method, c.Request.URL.Path, body)

		entry, owner := m.claim(key)
		for !owner {
			select {
			case <-entry.done:
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}

			if entry.stored {
				replay(c, entry)
				return
			}

			entry, owner = m.claim(key)
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		completed := false
		defer func() {
			// the handler panicked; release the entry so repeats execute again
			if !completed {
				m.complete(key, entry, http.StatusInternalServerError, "", nil)
			}
		}()

		c.Next()

		m.complete(key, entry, writer.Status(), writer.Header().Get("Content-Type"), writer.body.Bytes())
		completed = true
	}
}

func replay(c *gin.Context, entry *idempotencyEntry) {
	c.Header(ReplayedHeader, "true")
	c.Data(entry.status, entry.contentType, entry.body)
	c.Abort()
}

// fingerprint creates a unique key from the idempotency key and the request.
func fingerprint(idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// capturingWriter captures the response body for caching.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
