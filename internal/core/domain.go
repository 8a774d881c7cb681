package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindCapitalNormal   AccountKind = "capital-normal"
	KindCapitalSavings  AccountKind = "capital-savings"
	KindDebtLoan        AccountKind = "debt-loan"
	KindDebtPersonal    AccountKind = "debt-personal"
	KindDebtCredit      AccountKind = "debt-credit"
	KindExternalIncome  AccountKind = "external-income"
	KindExternalExpense AccountKind = "external-expense"
	KindSystemHistoric  AccountKind = "system-historic"
)

type (
	AccountKind string

	// Account is the preview shape returned by the accounts listing.
	// Children are one level deep only.
	Account struct {
		ID       int64       `json:"id"`
		Kind     AccountKind `json:"kind"`
		Name     string      `json:"name"`
		Balance  int64       `json:"balance"`
		Capital  int64       `json:"capital"`
		Currency string      `json:"currency"`
		Color    string      `json:"color"`
		Archived bool        `json:"archived"`
		ParentID *int64      `json:"parentId,omitempty"`
		Children []Account   `json:"children,omitempty"`
	}

	// AccountSelect is the lightweight shape used to populate filter pickers.
	AccountSelect struct {
		ID       int64           `json:"id"`
		Kind     AccountKind     `json:"kind"`
		Name     string          `json:"name"`
		Color    string          `json:"color"`
		Children []AccountSelect `json:"children,omitempty"`
	}

	// AccountRef is how a transaction points at its source and target.
	AccountRef struct {
		ID       int64       `json:"id"`
		Name     string      `json:"name"`
		Kind     AccountKind `json:"kind"`
		Currency string      `json:"currency"`
		Color    string      `json:"color"`
		Archived bool        `json:"archived"`
		Parent   *AccountRef `json:"parent,omitempty"`
	}

	Transaction struct {
		ID           int64      `json:"id"`
		Source       AccountRef `json:"source"`
		Target       AccountRef `json:"target"`
		SourceAmount int64      `json:"sourceAmount"`
		TargetAmount int64      `json:"targetAmount"`
		Description  string     `json:"description"`
		CategoryID   *int64     `json:"categoryId,omitempty"`
		IssuedAt     time.Time  `json:"issuedAt"`
		ExecutedAt   *time.Time `json:"executedAt"`
		CreatedAt    time.Time  `json:"createdAt"`
		UpdatedAt    time.Time  `json:"updatedAt"`
	}

	// Goal is a savings goal. Saved and Target share the goal currency.
	Goal struct {
		ID         int64      `json:"id"`
		Name       string     `json:"name"`
		Target     int64      `json:"target"`
		Saved      int64      `json:"saved"`
		Currency   string     `json:"currency"`
		Position   int        `json:"position"`
		AchievedAt *time.Time `json:"achievedAt,omitempty"`
		ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	}
)

var (
	ErrInvalidKind      = errors.New("invalid account kind")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCurrency    = errors.New("empty currency")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrSameAccount      = errors.New("source and target must differ")
	ErrMissingIssueDate = errors.New("missing issue date")
	ErrNestedChildren   = errors.New("child accounts cannot have children")
	ErrNotFound         = errors.New("not found")
)

// kindOrder is the presentation order of account kinds.
var kindOrder = []AccountKind{
	KindCapitalNormal,
	KindCapitalSavings,
	KindDebtLoan,
	KindDebtPersonal,
	KindDebtCredit,
	KindExternalIncome,
	KindExternalExpense,
	KindSystemHistoric,
}

// AccountKinds returns every known kind in presentation order.
func AccountKinds() []AccountKind {
	return append([]AccountKind(nil), kindOrder...)
}

func (k AccountKind) String() string {
	return string(k)
}

func (k AccountKind) IsValid() bool {
	return k.Rank() >= 0
}

// Rank is the kind's position in presentation order, -1 when unknown.
func (k AccountKind) Rank() int {
	for i, v := range kindOrder {
		if v == k {
			return i
		}
	}
	return -1
}

func (k AccountKind) IsCapital() bool {
	return k == KindCapitalNormal || k == KindCapitalSavings
}

func (k AccountKind) IsDebt() bool {
	return k == KindDebtLoan || k == KindDebtPersonal || k == KindDebtCredit
}

func (k AccountKind) IsExternal() bool {
	return k == KindExternalIncome || k == KindExternalExpense
}

// ParseAccountKinds parses a comma separated kind list such as "debt-loan,debt-credit".
func ParseAccountKinds(s string) ([]AccountKind, error) {
	var out []AccountKind
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := AccountKind(part)
		if !k.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKind, part)
		}
		out = append(out, k)
	}
	return out, nil
}

// JoinAccountKinds is the inverse of ParseAccountKinds.
func JoinAccountKinds(kinds []AccountKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	for _, c := range a.Children {
		if len(c.Children) > 0 {
			return ErrNestedChildren
		}
	}
	return nil
}

// Ref converts the account into the reference shape embedded in transactions.
func (a Account) Ref() AccountRef {
	return AccountRef{
		ID:       a.ID,
		Name:     a.Name,
		Kind:     a.Kind,
		Currency: a.Currency,
		Color:    a.Color,
		Archived: a.Archived,
	}
}

// Select converts the account and its children into the picker shape.
func (a Account) Select() AccountSelect {
	s := AccountSelect{ID: a.ID, Kind: a.Kind, Name: a.Name, Color: a.Color}
	for _, c := range a.Children {
		s.Children = append(s.Children, AccountSelect{ID: c.ID, Kind: c.Kind, Name: c.Name, Color: c.Color})
	}
	return s
}

// IDs returns the account id followed by its direct children ids.
func (a AccountSelect) IDs() []int64 {
	ids := make([]int64, 0, 1+len(a.Children))
	ids = append(ids, a.ID)
	for _, c := range a.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

// Matches reports whether the reference is the given account or one of its children.
func (r AccountRef) Matches(id int64) bool {
	if r.ID == id {
		return true
	}
	return r.Parent != nil && r.Parent.ID == id
}

// IsPending reports whether the transaction has no execution date yet.
func (t Transaction) IsPending() bool {
	return t.ExecutedAt == nil
}

func (t Transaction) Validate() error {
	if t.IssuedAt.IsZero() {
		return ErrMissingIssueDate
	}
	if t.Source.ID == 0 || t.Target.ID == 0 {
		return errors.New("source and target are required")
	}
	if t.Source.ID == t.Target.ID {
		return ErrSameAccount
	}
	if t.SourceAmount == 0 || t.TargetAmount == 0 {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(g.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}
