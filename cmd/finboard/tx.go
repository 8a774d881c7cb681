package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/core"
	applog "finboard/internal/log"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Create or delete transactions",
	}
	cmd.AddCommand(newTxCreateCmd(a), newTxDeleteCmd(a))
	return cmd
}

type txFlags struct {
	source       int64
	target       int64
	amount       string
	targetAmount string
	description  string
	category     int64
	issued       string
	executed     string
}

func newTxCreateCmd(a *app) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Move an amount from one account to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tx, err := f.transaction(a.now().In(a.loc), a.loc)
			if err != nil {
				return err
			}
			created, err := a.client.CreateTransaction(cmd.Context(), tx)
			if err != nil {
				return err
			}
			a.logger.Info("Transaction created", applog.FieldTransactionID, created.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Created transaction #%d %s\n", created.ID,
				core.FormatAmount(created.TargetAmount, created.Target.Currency))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.Int64Var(&f.source, "source", 0, "account the money leaves")
	fl.Int64Var(&f.target, "target", 0, "account the money arrives at")
	fl.StringVar(&f.amount, "amount", "", "amount leaving the source, e.g. 12.50")
	fl.StringVar(&f.targetAmount, "target-amount", "", "amount arriving at the target when currencies differ (default --amount)")
	fl.StringVar(&f.description, "description", "", "free text")
	fl.Int64Var(&f.category, "tx-category", 0, "category id")
	fl.StringVar(&f.issued, "issued", "", "issue day YYYY-MM-DD (default today)")
	fl.StringVar(&f.executed, "executed", "", `execution day YYYY-MM-DD or "now"; empty leaves it pending`)
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// transaction builds the request body. The source side is stored negative
// and the target side positive.
func (f txFlags) transaction(now time.Time, loc *time.Location) (core.Transaction, error) {
	amount, err := core.ParseAmount(f.amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("--amount: %w", err)
	}
	targetAmount := amount
	if f.targetAmount != "" {
		if targetAmount, err = core.ParseAmount(f.targetAmount); err != nil {
			return core.Transaction{}, fmt.Errorf("--target-amount: %w", err)
		}
	}

	tx := core.Transaction{
		Source:       core.AccountRef{ID: f.source},
		Target:       core.AccountRef{ID: f.target},
		SourceAmount: -amount,
		TargetAmount: targetAmount,
		Description:  f.description,
		IssuedAt:     now,
	}
	if f.category != 0 {
		category := f.category
		tx.CategoryID = &category
	}
	if f.issued != "" {
		if tx.IssuedAt, err = parseDay(f.issued, loc); err != nil {
			return core.Transaction{}, fmt.Errorf("--issued: %w", err)
		}
	}
	switch f.executed {
	case "":
	case "now":
		executed := now
		tx.ExecutedAt = &executed
	default:
		executed, err := parseDay(f.executed, loc)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("--executed: %w", err)
		}
		tx.ExecutedAt = &executed
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func newTxDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			res, err := a.client.DeleteTransaction(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.logger.Info("Transaction deleted", applog.FieldTransactionID, res.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction #%d\n", res.ID)
			return nil
		},
	}
}
