package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/core"
	"finboard/internal/filters"
	"finboard/internal/query"
	"finboard/internal/views"
)

func newAccountsCmd(a *app) *cobra.Command {
	var (
		kinds    string
		archived bool
	)
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account buckets with balances, debt progress and amounts owed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := core.ParseAccountKinds(kinds)
			if err != nil {
				return err
			}
			accounts, err := a.client.ListAccounts(cmd.Context(), parsed, archived)
			if err != nil {
				return err
			}
			return a.renderer.Accounts(cmd.OutOrStdout(), accounts)
		},
	}
	cmd.Flags().StringVar(&kinds, "kind", "", "comma separated account kinds")
	cmd.Flags().BoolVar(&archived, "archived", false, "include archived accounts")
	return cmd
}

func newViewCmd(a *app, name, short string) *cobra.Command {
	kind := views.ViewKind(name)
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kind == views.ViewUpcoming && !cmd.Flags().Changed("to") {
				cur := a.filters.State()
				a.filters.Dispatch(filters.UpdateDates(cur.From, nil))
			}
			groups, err := a.groups(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return a.renderer.DayGroups(cmd.OutOrStdout(), groups, a.focus)
		},
	}
}

// groups fetches the current filter state and groups the transactions that
// belong to kind as of now.
func (a *app) groups(ctx context.Context, kind views.ViewKind) ([]views.DayGroup, error) {
	res, err := a.loader.Refresh(ctx, a.filters.State().Filters)
	if err != nil {
		return nil, err
	}
	return groupTransactions(res.Page, kind, a.now(), a.loc)
}

func groupTransactions(page query.Page, kind views.ViewKind, now time.Time, loc *time.Location) ([]views.DayGroup, error) {
	var txs []core.Transaction
	switch kind {
	case views.ViewPending:
		txs = page.Pending
	case views.ViewUpcoming:
		_, txs, _ = views.Split(page.History, now)
	default:
		_, _, txs = views.Split(page.History, now)
	}
	return views.GroupView(txs, kind, loc)
}

func newGoalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Savings goals with progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			goals, err := a.client.ListGoals(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.Goals(cmd.OutOrStdout(), goals)
		},
	}
	cmd.AddCommand(newGoalAddCmd(a))
	return cmd
}

func newGoalAddCmd(a *app) *cobra.Command {
	var (
		name     string
		target   string
		saved    string
		currency string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := core.Goal{Name: name, Currency: currency}
			var err error
			if g.Target, err = core.ParseAmount(target); err != nil {
				return fmt.Errorf("--target: %w", err)
			}
			if saved != "" {
				if g.Saved, err = core.ParseSignedAmount(saved); err != nil {
					return fmt.Errorf("--saved: %w", err)
				}
			}
			created, err := a.client.CreateGoal(cmd.Context(), g)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created goal #%d %s\n", created.ID, created.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().StringVar(&target, "target", "", "target amount, e.g. 1500.00")
	cmd.Flags().StringVar(&saved, "saved", "", "amount already saved")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "currency code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
