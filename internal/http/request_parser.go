package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/store"
)

// PathID parses the {id} wildcard.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// DecodeJSON reads a single JSON document into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON document")
	}
	return nil
}

// ParseBool treats an absent value as false.
func ParseBool(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

// ParseAccountFilter reads kind=a,b and archived=true|false.
func ParseAccountFilter(query url.Values) (store.AccountFilter, error) {
	var f store.AccountFilter
	kinds, err := core.ParseAccountKinds(query.Get("kind"))
	if err != nil {
		return f, err
	}
	f.Kinds = kinds
	f.Archived, err = ParseBool(query, "archived")
	return f, err
}

// ParseTransactionFilter reads executedFrom, executedUntil, account[] and category[].
func ParseTransactionFilter(query url.Values, state store.Pending) (store.TransactionFilter, error) {
	f := store.TransactionFilter{State: state}
	var err error
	if f.ExecutedFrom, err = parseTime(query, "executedFrom"); err != nil {
		return f, err
	}
	if f.ExecutedUntil, err = parseTime(query, "executedUntil"); err != nil {
		return f, err
	}
	if f.Accounts, err = parseIDs(query, "account[]"); err != nil {
		return f, err
	}
	if f.Categories, err = parseIDs(query, "category[]"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(query url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: want RFC 3339", key, v)
	}
	return &t, nil
}

func parseIDs(query url.Values, key string) ([]int64, error) {
	raw := query[key]
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
