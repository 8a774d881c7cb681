// Package api is the HTTP client for the finance REST API: account,
// transaction and goal listings plus CRUD.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
)

const (
	// RequestIDHeader carries a per-request id the server echoes in its logs.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 4 << 10
)

var (
	ErrUnexpectedStatus = errors.New("unexpected http status code")
	ErrDecodeBody       = errors.New("error decoding response body")
	ErrBaseURL          = errors.New("invalid base url")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.StatusCode)
	}
	return fmt.Sprintf("%s: %d: %s", ErrUnexpectedStatus, e.StatusCode, e.Message)
}

// Is lets callers match both ErrUnexpectedStatus and, for 404, core.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case core.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// TransactionQuery are the filter parameters of the transaction listings.
type TransactionQuery struct {
	ExecutedFrom  *time.Time
	ExecutedUntil *time.Time
	Accounts      []int64
	Categories    []int64
}

// Values encodes the query; the pending endpoint ignores the date bounds.
func (q TransactionQuery) Values(withDates bool) url.Values {
	v := url.Values{}
	if withDates && q.ExecutedFrom != nil {
		v.Set("executedFrom", q.ExecutedFrom.Format(time.RFC3339))
	}
	if withDates && q.ExecutedUntil != nil {
		v.Set("executedUntil", q.ExecutedUntil.Format(time.RFC3339))
	}
	for _, id := range q.Accounts {
		v.Add("account[]", strconv.FormatInt(id, 10))
	}
	for _, id := range q.Categories {
		v.Add("category[]", strconv.FormatInt(id, 10))
	}
	return v
}

// DeleteResponse is the confirmation body of DELETE endpoints.
type DeleteResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the REST API rooted at BaseURL.
type Client struct {
	HTTPClient *http.Client
	BaseURL    *url.URL
}

// New returns a client; a nil httpClient gets a 15s timeout default.
func New(httpClient *http.Client, baseURL string) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	return &Client{HTTPClient: httpClient, BaseURL: u}, nil
}

// ListAccounts fetches account previews of the given kinds.
func (c *Client) ListAccounts(ctx context.Context, kinds []core.AccountKind, archived bool) ([]core.Account, error) {
	q := url.Values{}
	if len(kinds) > 0 {
		q.Set("kind", core.JoinAccountKinds(kinds))
	}
	q.Set("archived", strconv.FormatBool(archived))

	var out []core.Account
	if err := c.do(ctx, http.MethodGet, "/accounts", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// SelectAccounts fetches the lightweight account tree for filter pickers.
func (c *Client) SelectAccounts(ctx context.Context, archived bool) ([]core.AccountSelect, error) {
	var q url.Values
	if archived {
		q = url.Values{"archived": {"true"}}
	}
	var out []core.AccountSelect
	if err := c.do(ctx, http.MethodGet, "/accounts/select", q, nil, &out); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	return out, nil
}

// ListTransactions fetches executed transactions matching the query.
func (c *Client) ListTransactions(ctx context.Context, query TransactionQuery) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", query.Values(true), nil, &out); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// ListPendingTransactions fetches transactions without an execution date.
func (c *Client) ListPendingTransactions(ctx context.Context, query TransactionQuery) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/pending", query.Values(false), nil, &out); err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	return out, nil
}

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var out []core.Goal
	if err := c.do(ctx, http.MethodGet, "/goals", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (c *Client) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var out core.Goal
	if err := c.do(ctx, http.MethodPost, "/goals", nil, g, &out); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	var out core.Account
	if err := c.do(ctx, http.MethodPost, "/accounts", nil, a, &out); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	var out core.Account
	if err := c.do(ctx, http.MethodPut, "/accounts/"+strconv.FormatInt(a.ID, 10), nil, a, &out); err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return out, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id int64) (DeleteResponse, error) {
	var out DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/accounts/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return DeleteResponse{}, fmt.Errorf("delete account %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, tx, &out); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	if err := c.do(ctx, http.MethodPut, "/transactions/"+strconv.FormatInt(tx.ID, 10), nil, tx, &out); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) (DeleteResponse, error) {
	var out DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/transactions/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return DeleteResponse{}, fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return out, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.BaseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, RequestID: requestID}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			se.Message = eb.Error
		} else {
			se.Message = strings.TrimSpace(string(raw))
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeBody, err)
	}
	return nil
}
