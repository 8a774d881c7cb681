package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/cli"
	"finboard/internal/filters"
	applog "finboard/internal/log"
	"finboard/internal/query"
	"finboard/internal/services"
	"finboard/internal/views"
	"finboard/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw pending, upcoming and history views until interrupted",
		Long: `Watch refreshes the current filter state every --interval. When AMQP_URL is
set it also listens for ledger mutation events and refetches right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				interval = a.cfg.RefreshInterval
			}
			if !cmd.Flags().Changed("to") {
				cur := a.filters.State()
				a.filters.Dispatch(filters.UpdateDates(cur.From, nil))
			}
			return a.watch(cmd.Context(), cmd.OutOrStdout(), interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default REFRESH_INTERVAL)")
	return cmd
}

func (a *app) watch(parent context.Context, out io.Writer, interval time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	cacheManager := cache.NewManager(a.logger.WithComponent(applog.ComponentCache).Slog())
	cacheManager.Register(a.loader.Cache())
	cacheManager.StartCleanup(a.cfg.CacheTTL)

	processor := services.NewRefreshProcessor(a.loader, a.filters, func(r query.Result, now time.Time, err error) {
		a.draw(out, r, now, err)
	}, services.RefreshProcessorConfig{Interval: interval})

	var events *amqp.Client
	if a.cfg.AMQPEnabled() {
		c, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			// Periodic refresh still works without events.
			a.logger.Warn("AMQP unavailable, falling back to polling", applog.FieldError, err)
		} else {
			events = c
		}
	}

	ctx, done := cli.GracefulShutdown(parent, a.logger, shutdownTimeout, func(ctx context.Context) error {
		var errs []error
		errs = append(errs, processor.Stop(ctx))
		cacheManager.Stop()
		if events != nil {
			errs = append(errs, events.Close())
		}
		return errors.Join(errs...)
	})

	if err := processor.Start(ctx); err != nil {
		return err
	}
	if events != nil {
		invalidator := worker.NewInvalidator(a.loader, processor.Trigger, a.logger)
		go func() {
			if err := invalidator.Run(ctx, events); err != nil {
				a.logger.Error("Mutation watcher stopped", applog.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}

// draw prints one frame. now is the tick time, so upcoming transactions move
// into history once their execution date passes even if nothing was refetched.
func (a *app) draw(out io.Writer, r query.Result, now time.Time, err error) {
	fmt.Fprintf(out, "\n== %s ==\n", now.In(a.loc).Format("2006-01-02 15:04:05"))
	if err != nil {
		fmt.Fprintf(out, "refresh failed: %v\n", err)
		return
	}
	for _, section := range []struct {
		title string
		kind  views.ViewKind
	}{
		{"Pending", views.ViewPending},
		{"Upcoming", views.ViewUpcoming},
		{"History", views.ViewHistory},
	} {
		groups, gerr := groupTransactions(r.Page, section.kind, now, a.loc)
		if gerr != nil {
			fmt.Fprintf(out, "%s: %v\n", section.title, gerr)
			continue
		}
		fmt.Fprintf(out, "\n%s\n", a.renderer.Styles.Heading.Render(section.title))
		a.renderer.Now = func() time.Time { return now }
		if err := a.renderer.DayGroups(out, groups, a.focus); err != nil {
			a.logger.Warn("Render failed", applog.FieldView, section.kind, applog.FieldError, err)
		}
	}
}
