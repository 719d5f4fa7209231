package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

const maxErrorBodyBytes = 64 << 10

// ErrInvalidBaseURL is returned by NewClient for a base URL that is not absolute.
var ErrInvalidBaseURL = errors.New("invalid base url")

// Client is a lending.Gateway talking HTTP JSON to the remote store.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger for the Client.
//
// Debug level: request and response lines with durations
// Error level: failed requests.
func WithLogger(logger lending.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithContextualLogger sets the contextual logger for the Client.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(c *Client) {
		c.contextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for the Client.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(c *Client) {
		c.metricsCollector = collector
	}
}

// WithTracing sets the tracing collector for the Client.
func WithTracing(collector lending.TracingCollector) Option {
	return func(c *Client) {
		c.tracingCollector = collector
	}
}

// NewClient creates a Client for baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// CreateBook implements lending.Gateway.
func (c *Client) CreateBook(ctx context.Context, book lending.Book) error {
	body := CreateBookRequest{ID: book.ID, Title: book.Title, Author: book.Author}
	return c.write(ctx, OpCreateBook, http.MethodPost, "/books", body)
}

// Issue implements lending.Gateway.
func (c *Client) Issue(ctx context.Context, bookID lending.BookIDInt, borrowerName string, loanDays int) error {
	body := IssueRequest{BookID: bookID, StudentName: borrowerName, Days: loanDays}
	return c.write(ctx, OpIssue, http.MethodPost, "/issue", body)
}

// ReturnBook implements lending.Gateway.
func (c *Client) ReturnBook(ctx context.Context, bookID lending.BookIDInt) error {
	return c.write(ctx, OpReturn, http.MethodPost, "/return", ReturnRequest{BookID: bookID})
}

// DeleteBook implements lending.Gateway.
func (c *Client) DeleteBook(ctx context.Context, id lending.BookIDInt) error {
	return c.write(ctx, OpDeleteBook, http.MethodDelete, "/books/"+strconv.Itoa(id), nil)
}

// ResetCredentials implements lending.Gateway.
func (c *Client) ResetCredentials(ctx context.Context, oldPassword, newUsername, newPassword string) error {
	body := ResetPasswordRequest{OldPassword: oldPassword, NewUsername: newUsername, NewPassword: newPassword}

	respBody, statusCode, err := c.send(ctx, OpResetPassword, http.MethodPost, "/reset-password", body)
	if err != nil {
		return err
	}

	// A 2xx reply only counts when the body confirms it.
	var status StatusResponse
	if err = json.Unmarshal(respBody, &status); err != nil {
		return &lending.RemoteError{Op: OpResetPassword, StatusCode: statusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if !status.Success {
		return &lending.RemoteError{Op: OpResetPassword, StatusCode: statusCode, Message: status.Error}
	}

	return nil
}

// Login implements lending.Gateway.
func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.write(ctx, OpLogin, http.MethodPost, "/login", LoginRequest{Username: username, Password: password})
}

// RefreshCatalog implements lending.Gateway.
func (c *Client) RefreshCatalog(ctx context.Context) ([]lending.Book, error) {
	var dtos []BookDTO
	if err := c.read(ctx, OpListBooks, "/books", &dtos); err != nil {
		return nil, err
	}

	books := make([]lending.Book, 0, len(dtos))
	for _, dto := range dtos {
		books = append(books, dto.Book())
	}

	return books, nil
}

// RefreshLoans implements lending.Gateway.
func (c *Client) RefreshLoans(ctx context.Context) ([]lending.Loan, error) {
	var dtos []LoanDTO
	if err := c.read(ctx, OpListLoans, "/students", &dtos); err != nil {
		return nil, err
	}

	loans := make([]lending.Loan, 0, len(dtos))
	for _, dto := range dtos {
		loan, err := dto.Loan()
		if err != nil {
			return nil, &lending.RemoteError{Op: OpListLoans, Err: err}
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func (c *Client) write(ctx context.Context, op, method, path string, body any) error {
	_, _, err := c.send(ctx, op, method, path, body)
	return err
}

// send encodes body and issues a mutating request with an idempotency key.
func (c *Client) send(ctx context.Context, op, method, path string, body any) ([]byte, int, error) {
	var payload []byte

	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, 0, &lending.RemoteError{Op: op, Err: err}
		}
	}

	key := lending.IdempotencyKeyFrom(ctx)
	if key == "" {
		key = uuid.NewString()
	}

	return c.do(ctx, op, method, path, payload, key)
}

func (c *Client) read(ctx context.Context, op, path string, target any) error {
	respBody, _, err := c.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}

	if err = json.Unmarshal(respBody, target); err != nil {
		return &lending.RemoteError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

// do sends one request and returns the body and status code of a 2xx response.
func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	payload []byte,
	idempotencyKey string,
) ([]byte, int, error) {

	start := time.Now()
	ctx, span := c.startSpan(ctx, op, method, path)

	respBody, statusCode, err := c.roundTrip(ctx, op, method, path, payload, idempotencyKey)

	c.observe(ctx, span, op, method, statusCode, time.Since(start), err)

	return respBody, statusCode, err
}

func (c *Client) roundTrip(
	ctx context.Context,
	op, method, path string,
	payload []byte,
	idempotencyKey string,
) ([]byte, int, error) {

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, &lending.RemoteError{Op: op, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if idempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &lending.RemoteError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, resp.StatusCode, &lending.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(errBody),
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &lending.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	return respBody, resp.StatusCode, nil
}

// errorMessage extracts the "error" field of a failure body, if it has one.
func errorMessage(body []byte) string {
	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return ""
	}

	return status.Error
}
