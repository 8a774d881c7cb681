package http

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/store"
)

func TestParseTransactionFilter(t *testing.T) {
	q := url.Values{
		"executedFrom":  {"2024-03-01T00:00:00Z"},
		"executedUntil": {"2024-03-31T23:59:59+02:00"},
		"account[]":     {"1", "7"},
		"category[]":    {"3"},
	}
	f, err := ParseTransactionFilter(q, store.ExecutedOnly)
	if err != nil {
		t.Fatalf("ParseTransactionFilter: %v", err)
	}
	if f.State != store.ExecutedOnly {
		t.Errorf("State = %v", f.State)
	}
	if f.ExecutedFrom == nil || !f.ExecutedFrom.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ExecutedFrom = %v", f.ExecutedFrom)
	}
	if f.ExecutedUntil == nil || !f.ExecutedUntil.Equal(time.Date(2024, 3, 31, 21, 59, 59, 0, time.UTC)) {
		t.Errorf("ExecutedUntil = %v", f.ExecutedUntil)
	}
	if !equalIDs(f.Accounts, []int64{1, 7}) || !equalIDs(f.Categories, []int64{3}) {
		t.Errorf("ids: accounts=%v categories=%v", f.Accounts, f.Categories)
	}

	empty, err := ParseTransactionFilter(url.Values{}, store.PendingOnly)
	if err != nil || empty.ExecutedFrom != nil || empty.Accounts != nil {
		t.Errorf("empty query: %+v %v", empty, err)
	}
}

func TestParseAccountFilter(t *testing.T) {
	f, err := ParseAccountFilter(url.Values{"kind": {"debt-loan, debt-credit"}, "archived": {"true"}})
	if err != nil {
		t.Fatalf("ParseAccountFilter: %v", err)
	}
	if len(f.Kinds) != 2 || f.Kinds[1] != core.KindDebtCredit || !f.Archived {
		t.Errorf("filter = %+v", f)
	}
	if _, err := ParseAccountFilter(url.Values{"archived": {"maybe"}}); err == nil {
		t.Error("expected error for archived=maybe")
	}
}

func TestPathID(t *testing.T) {
	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "x": false} {
		r := httptest.NewRequest("GET", "/accounts/"+raw, nil)
		r.SetPathValue("id", raw)
		if _, err := PathID(r); (err == nil) != ok {
			t.Errorf("PathID(%q) err = %v", raw, err)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, 404},
		{store.ErrInUse, 409},
		{core.ErrSameAccount, 422},
		{core.ErrNestedChildren, 422},
		{url.EscapeError("x"), 500},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
