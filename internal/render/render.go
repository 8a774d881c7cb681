// Package render draws the account, transaction and goal views as styled
// terminal text.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finboard/internal/core"
	"finboard/internal/views"
)

var titleCaser = cases.Title(language.English)

const barWidth = 20

type Styles struct {
	Heading  lipgloss.Style
	Day      lipgloss.Style
	Name     lipgloss.Style
	Muted    lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
	Pending  lipgloss.Style
	Done     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d29b1d")),
		Day:      lipgloss.NewStyle().Underline(true),
		Name:     lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")),
		Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")),
		Pending:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#bbbbbb")),
		Done:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")).Bold(true),
	}
}

type Renderer struct {
	Styles Styles
	// Now classifies transactions as pending, upcoming or historical.
	Now func() time.Time
}

func New() *Renderer {
	return &Renderer{Styles: DefaultStyles(), Now: time.Now}
}

func (r *Renderer) amount(minor int64, currency string) string {
	text := core.FormatAmount(minor, currency)
	switch views.ToneOf(minor) {
	case views.Positive:
		return r.Styles.Positive.Render(text)
	case views.Negative:
		return r.Styles.Negative.Render(text)
	}
	return text
}

func bar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

// Accounts writes one section per non-empty bucket. Debt sections show what
// is owed and repaid; the others show balances with nested children.
func (r *Renderer) Accounts(w io.Writer, accounts []core.Account) error {
	b := views.Partition(accounts)
	sections := []struct {
		title    string
		accounts []core.Account
		debt     bool
	}{
		{"capital", b.Capital, false},
		{"loans", b.Loans, true},
		{"credit lines", b.Credits, true},
		{"income", b.Income, false},
		{"expenses", b.Expenses, false},
	}

	var out []string
	for _, s := range sections {
		if len(s.accounts) == 0 {
			continue
		}
		out = append(out, r.Styles.Heading.Render(titleCaser.String(s.title)))
		if s.debt {
			for _, a := range views.SortByKind(s.accounts) {
				out = append(out, r.debtLine(a))
			}
		} else {
			out = append(out, r.balanceTree(s.accounts).String())
		}
		out = append(out, "")
	}
	if len(out) == 0 {
		out = append(out, r.Styles.Muted.Render("No accounts."))
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(out, "\n"), "\n"))
	return err
}

func (r *Renderer) balanceTree(accounts []core.Account) *tree.Tree {
	t := tree.New()
	for _, a := range accounts {
		label := r.Styles.Name.Render(a.Name) + "  " + r.amount(a.Balance, a.Currency)
		if len(a.Children) == 0 {
			t.Child(label)
			continue
		}
		sub := tree.Root(label)
		for _, c := range a.Children {
			sub.Child(r.Styles.Name.Render(c.Name) + "  " + r.amount(c.Balance, c.Currency))
		}
		t.Child(sub)
	}
	return t
}

func (r *Renderer) debtLine(a core.Account) string {
	p := views.DebtProgress(a)
	status := fmt.Sprintf("%s %3d%%", bar(p.Percent()), p.Percent())
	if p.Complete {
		status = r.Styles.Done.Render("settled")
	}
	return fmt.Sprintf("  %s  owed %s  remaining %s  %s",
		r.Styles.Name.Render(a.Name),
		core.FormatAmount(views.AmountOwed(a), a.Currency),
		r.amount(views.Remaining(a), a.Currency),
		status)
}

// DayGroups writes transactions under their day headings. With a focal
// account every line is drawn from that account's side.
func (r *Renderer) DayGroups(w io.Writer, groups []views.DayGroup, focal *int64) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, r.Styles.Muted.Render("No transactions."))
		return err
	}
	now := r.Now()
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Styles.Day.Render(g.Date.Format("Mon 02 Jan 2006")))
		b.WriteString("\n")
		for _, tx := range g.Transactions {
			b.WriteString("  ")
			b.WriteString(r.transactionLine(tx, focal, now))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) transactionLine(tx core.Transaction, focal *int64, now time.Time) string {
	desc := tx.Description
	if desc == "" {
		desc = "-"
	}
	var line string
	if focal != nil {
		p := views.PerspectiveOf(tx, *focal)
		abs := p.Amount
		if abs < 0 {
			abs = -abs
		}
		text := p.Direction.Sign() + core.FormatAmount(abs, p.Currency)
		if p.Direction == views.Debit {
			text = r.Styles.Negative.Render(text)
		} else {
			text = r.Styles.Positive.Render(text)
		}
		line = fmt.Sprintf("#%d %s  %s  %s", tx.ID, desc, r.Styles.Muted.Render(p.Counterparty.Name), text)
	} else {
		line = fmt.Sprintf("#%d %s  %s -> %s  %s", tx.ID, desc,
			r.Styles.Muted.Render(tx.Source.Name), r.Styles.Muted.Render(tx.Target.Name),
			core.FormatAmount(tx.TargetAmount, tx.Target.Currency))
	}
	switch views.Classify(tx, now) {
	case views.Pending:
		line += "  " + r.Styles.Pending.Render("(pending)")
	case views.Upcoming:
		line += "  " + r.Styles.Pending.Render("(upcoming)")
	}
	return line
}

// Goals writes active goals in position order with a progress bar each,
// followed by archived goals tagged as such whatever their progress.
func (r *Renderer) Goals(w io.Writer, goals []core.Goal) error {
	sorted := views.SortGoals(goals)
	if len(sorted) == 0 {
		_, err := fmt.Fprintln(w, r.Styles.Muted.Render("No goals."))
		return err
	}
	var b strings.Builder
	b.WriteString(r.Styles.Heading.Render("Goals"))
	b.WriteString("\n")
	for _, g := range views.ActiveGoals(sorted) {
		st := views.GoalProgress(g)
		status := fmt.Sprintf("%s %3d%%", bar(st.Percent()), st.Percent())
		if st.Reached {
			status = r.Styles.Done.Render("reached")
		}
		r.goalLine(&b, g, status)
	}
	for _, g := range views.ArchivedGoals(sorted) {
		r.goalLine(&b, g, r.Styles.Muted.Render("archived"))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) goalLine(b *strings.Builder, g core.Goal, status string) {
	fmt.Fprintf(b, "  %s  %s / %s  %s\n",
		r.Styles.Name.Render(g.Name),
		core.FormatAmount(g.Saved, g.Currency),
		core.FormatAmount(g.Target, g.Currency),
		status)
}
