package lending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stats is the aggregate view over both caches. Issued and Overdue are derived separately
// (from book flags and loan due dates) and may diverge until the next refresh.
type Stats struct {
	TotalBooks     int
	AvailableBooks int
	IssuedBooks    int
	OverdueLoans   int
}

// Service orchestrates Catalog, LoanLedger and Gateway. It is the only mutator of the caches.
//
// The caches are guarded by a lock that is never held across a Gateway call, so a slow
// remote store does not block readers.
type Service struct {
	gateway Gateway

	mu      sync.RWMutex
	catalog *Catalog
	ledger  *LoanLedger

	catalogRefreshes refreshSequence
	loanRefreshes    refreshSequence

	deletePolicy     DeletePolicy
	now              func() time.Time
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// Option configures a Service.
type Option func(*Service)

// WithDeletePolicy sets how deleting an issued book is handled. The default is DeleteForce.
func WithDeletePolicy(policy DeletePolicy) Option {
	return func(s *Service) {
		s.deletePolicy = policy
	}
}

// WithClock sets the time source used for issue dates and overdue evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger for the Service.
//
// Debug level: discarded stale refreshes
// Info level: operation start and completion with durations
// Warn level: precondition failures and failed refreshes after a confirmed write
// Error level: remote failures.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithContextualLogger sets the contextual logger for the Service.
// When set, it is preferred over the basic logger so log records carry trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *Service) {
		s.contextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for the Service.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Service) {
		s.metricsCollector = collector
	}
}

// WithTracing sets the tracing collector for the Service.
func WithTracing(collector TracingCollector) Option {
	return func(s *Service) {
		s.tracingCollector = collector
	}
}

// NewService creates a Service with empty caches. Call Refresh to load them.
func NewService(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:      gateway,
		catalog:      NewCatalog(),
		ledger:       NewLoanLedger(),
		deletePolicy: DeleteForce,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DeletePolicy returns the configured delete policy.
func (s *Service) DeletePolicy() DeletePolicy {
	return s.deletePolicy
}

// Search returns the cached books matching filter. It never contacts the remote store.
func (s *Service) Search(filter string) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog.List(filter)
}

// Books returns all cached books.
func (s *Service) Books() []Book {
	return s.Search("")
}

// FindBook returns the cached book with id.
func (s *Service) FindBook(id BookIDInt) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.catalog.FindByID(id)
}

// ActiveLoans returns all cached loans with their overdue flag evaluated now.
func (s *Service) ActiveLoans() []LoanStatus {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.Active(now)
}

// LoanFor returns the cached loan for bookID.
func (s *Service) LoanFor(bookID BookIDInt) (Loan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ledger.LoanFor(bookID)
}

// Stats returns the aggregate counts with overdue evaluated at asOf.
func (s *Service) Stats(asOf time.Time) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		TotalBooks:     s.catalog.Len(),
		AvailableBooks: s.catalog.AvailableCount(),
		IssuedBooks:    s.catalog.IssuedCount(),
		OverdueLoans:   s.ledger.OverdueCount(asOf),
	}
}

// Refresh reloads both caches from the remote store.
// A failure of one refresh does not prevent the other; both errors are returned joined.
func (s *Service) Refresh(ctx context.Context) error {
	return s.observe(ctx, OperationRefresh, func(ctx context.Context) error {
		return errors.Join(s.refreshCatalog(ctx), s.refreshLoans(ctx))
	})
}

// RefreshCatalog reloads the Catalog from the remote store.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	return s.observe(ctx, OperationRefreshCatalog, s.refreshCatalog)
}

// RefreshLoans reloads the LoanLedger from the remote store.
func (s *Service) RefreshLoans(ctx context.Context) error {
	return s.observe(ctx, OperationRefreshLoans, s.refreshLoans)
}

func (s *Service) refreshCatalog(ctx context.Context) error {
	ticket := s.catalogRefreshes.next()

	books, err := s.gateway.RefreshCatalog(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.catalogRefreshes.accept(ticket) {
		s.logStaleRefresh(ctx, OperationRefreshCatalog, ticket)
		return nil
	}

	s.catalog.replaceAll(books)

	return nil
}

func (s *Service) refreshLoans(ctx context.Context) error {
	ticket := s.loanRefreshes.next()

	loans, err := s.gateway.RefreshLoans(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loanRefreshes.accept(ticket) {
		s.logStaleRefresh(ctx, OperationRefreshLoans, ticket)
		return nil
	}

	s.ledger.replaceAll(loans)

	return nil
}

// refreshAfterWrite re-synchronizes the caches after a write the remote store confirmed.
func (s *Service) refreshAfterWrite(ctx context.Context, catalog bool, loans bool) error {
	var errs []error

	if catalog {
		errs = append(errs, s.refreshCatalog(ctx))
	}

	if loans {
		errs = append(errs, s.refreshLoans(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	return nil
}

// withIdempotencyKey keeps a key the caller already chose, so a resubmitted action is recognized remotely.
func withIdempotencyKey(ctx context.Context) context.Context {
	if IdempotencyKeyFrom(ctx) != "" {
		return ctx
	}

	return WithIdempotencyKey(ctx, uuid.NewString())
}

// refreshSequence orders refresh responses by the time their request was started.
// next is lock free; accept and invalidate must be called with the Service lock held.
type refreshSequence struct {
	issued  atomic.Uint64
	applied uint64
}

func (r *refreshSequence) next() uint64 {
	return r.issued.Add(1)
}

// accept reports whether a response for ticket is newer than the last applied state.
func (r *refreshSequence) accept(ticket uint64) bool {
	if ticket <= r.applied {
		return false
	}

	r.applied = ticket

	return true
}

// invalidate discards all refreshes started before a locally applied confirmed write.
func (r *refreshSequence) invalidate() {
	r.applied = r.next()
}
