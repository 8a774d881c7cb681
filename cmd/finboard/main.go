package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/api"
	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/filters"
	applog "finboard/internal/log"
	"finboard/internal/query"
	"finboard/internal/render"
	"finboard/internal/views"
)

const dateLayout = "2006-01-02"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every subcommand works with once the root pre-run has loaded
// the configuration.
type app struct {
	cfg      *config.Config
	logger   *applog.Logger
	client   *api.Client
	loader   *query.Loader
	filters  *filters.Store
	renderer *render.Renderer
	loc      *time.Location
	focus    *int64
	now      func() time.Time
}

type rootFlags struct {
	envFile    string
	configFile string
	logLevel   string
	from       string
	to         string
	accounts   []int64
	categories []int64
	focus      int64
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{now: time.Now}
	)

	root := &cobra.Command{
		Use:   "finboard",
		Short: "Browse accounts, transactions and goals of a personal finance ledger",
		Long: `finboard talks to a ledger REST API and renders account buckets,
date-grouped transaction views and savings goals in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "load environment from this file (default .env)")
	pf.StringVar(&flags.configFile, "config", "", "YAML, TOML or JSON settings file; keys are environment variable names")
	pf.StringVar(&flags.logLevel, "log-level", "", "override LOG_LEVEL")
	pf.StringVar(&flags.from, "from", "", "first day of the window, YYYY-MM-DD (default start of month)")
	pf.StringVar(&flags.to, "to", "", "last day of the window, YYYY-MM-DD (default now)")
	pf.Int64SliceVar(&flags.accounts, "account", nil, "only transactions touching these account ids")
	pf.Int64SliceVar(&flags.categories, "category", nil, "only transactions in these category ids")
	pf.Int64Var(&flags.focus, "focus", 0, "show transactions from this account's side")

	root.AddCommand(
		newAccountsCmd(a),
		newViewCmd(a, "history", "Executed transactions, newest day first"),
		newViewCmd(a, "upcoming", "Transactions scheduled after now"),
		newViewCmd(a, "pending", "Transactions without an execution date"),
		newGoalsCmd(a),
		newTxCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newAuthCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, flags rootFlags) error {
	var envFiles []string
	if flags.envFile != "" {
		envFiles = append(envFiles, flags.envFile)
	}
	if err := cli.LoadEnvFile(envFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if err := cli.LoadConfigFile(flags.configFile); err != nil {
		return err
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger, err := cli.SetupLogger(level, applog.ComponentCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	client, err := api.New(&http.Client{Timeout: cfg.APITimeout}, cfg.APIBaseURL)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.loc = loc
	a.client = client
	a.loader = query.NewLoader(client, cfg.CacheSize, cfg.CacheTTL, logger.WithComponent(applog.ComponentQuery).Slog())
	a.filters = filters.NewStore(filters.NewReducer(a.now().In(loc)))
	a.renderer = render.New()
	a.renderer.Now = a.now
	if flags.focus != 0 {
		focus := flags.focus
		a.focus = &focus
	}
	return a.applyFilters(cmd.Context(), flags)
}

// applyFilters turns the filter flags into reducer actions on the store.
func (a *app) applyFilters(ctx context.Context, flags rootFlags) error {
	if flags.from != "" || flags.to != "" {
		cur := a.filters.State()
		from, to := cur.From, cur.To
		if flags.from != "" {
			t, err := parseDay(flags.from, a.loc)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			from = &t
		}
		if flags.to != "" {
			t, err := parseDay(flags.to, a.loc)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			end := endOfDay(t)
			to = &end
		}
		a.filters.Dispatch(filters.UpdateDates(from, to))
	}
	if len(flags.accounts) > 0 {
		if err := a.selectAccounts(ctx, flags.accounts); err != nil {
			return err
		}
	}
	if len(flags.categories) > 0 {
		a.filters.Dispatch(filters.AddCategories(flags.categories...))
	}
	return nil
}

// selectAccounts resolves ids against the account select list so that a
// parent brings its direct children along.
func (a *app) selectAccounts(ctx context.Context, ids []int64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	options, err := a.client.SelectAccounts(ctx, true)
	if err != nil {
		return fmt.Errorf("--account: %w", err)
	}
	byID := make(map[int64]core.AccountSelect)
	for _, opt := range views.FlattenSelectable(options) {
		byID[opt.ID] = opt
	}
	for _, opt := range options {
		byID[opt.ID] = opt
	}
	for _, id := range ids {
		opt, ok := byID[id]
		if !ok {
			return fmt.Errorf("--account: unknown account %d", id)
		}
		a.filters.Dispatch(filters.SelectAccount(opt))
	}
	return nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
