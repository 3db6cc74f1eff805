// Command gatewayctl runs administrative operations against the gateway's store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevin07696/transaction-gateway/internal/adapters/postgres"
	"github.com/kevin07696/transaction-gateway/internal/config"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/kevin07696/transaction-gateway/internal/services/orchestration"
	"github.com/kevin07696/transaction-gateway/internal/validation"
	"github.com/kevin07696/transaction-gateway/pkg/observability"
	"github.com/kevin07696/transaction-gateway/pkg/security"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

var Version = "dev"

// storeOpener returns the store to operate on and a function releasing it
type storeOpener func(ctx context.Context) (ports.TransactionStore, func(), error)

type cli struct {
	open   storeOpener
	logger ports.Logger
	out    io.Writer
}

func main() {
	zapLogger, err := security.BuildZapLogger("production", "warn")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	c := &cli{
		open:   openPostgres,
		logger: security.NewZapLogger(zapLogger),
		out:    os.Stdout,
	}
	if err := c.rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Administer transaction gateway records",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(c.getCmd())
	rootCmd.AddCommand(c.findByCodeCmd())
	rootCmd.AddCommand(c.setStateCmd())
	rootCmd.AddCommand(c.searchCmd())
	rootCmd.AddCommand(c.reconcileCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(c.scheduleCmd())

	return rootCmd
}

func openPostgres(ctx context.Context) (ports.TransactionStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Database.UsesPostgres() {
		return nil, nil, fmt.Errorf("no database configured: set DATABASE_URL or DB_HOST")
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewTransactionStore(postgres.NewDBExecutor(pool)), pool.Close, nil
}

// engine builds an engine for administrative operations, which need no upstreams
func (c *cli) engine(store ports.TransactionStore) *orchestration.Engine {
	return orchestration.NewEngine(store, nil, nil, nil, validation.NewRules(validation.DefaultConfig()), c.logger)
}

func (c *cli) withStore(cmd *cobra.Command, fn func(ctx context.Context, store ports.TransactionStore) (interface{}, error)) error {
	ctx := cmd.Context()
	store, release, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer release()

	result, err := fn(ctx, store)
	if err != nil {
		return err
	}
	return c.print(masked(result))
}

// masked hides card numbers in record output
func masked(v interface{}) interface{} {
	mask := func(r *domain.TransactionRecord) *domain.TransactionRecord {
		c := r.Clone()
		c.CardNumber = c.MaskedCard()
		return c
	}
	switch t := v.(type) {
	case *domain.TransactionRecord:
		return mask(t)
	case []*domain.TransactionRecord:
		out := make([]*domain.TransactionRecord, len(t))
		for i, r := range t {
			out[i] = mask(r)
		}
		return out
	default:
		return v
	}
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store ports.TransactionStore) (interface{}, error) {
				return c.engine(store).Get(ctx, args[0])
			})
		},
	}
}

func (c *cli) findByCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-by-code [correlation-code]",
		Short: "Show the newest transaction carrying a correlation code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store ports.TransactionStore) (interface{}, error) {
				return c.engine(store).GetByCorrelationCode(ctx, args[0])
			})
		},
	}
}

func (c *cli) setStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-state [id] [state]",
		Short: "Override a transaction's state (PENDING, ACTIVE or INACTIVE)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store ports.TransactionStore) (interface{}, error) {
				return c.engine(store).SetState(ctx, args[0], domain.TransactionState(args[1]))
			})
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var state, kind, currency, country string
	var limit int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List transactions matching filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store ports.TransactionStore) (interface{}, error) {
				return c.engine(store).Search(ctx, domain.SearchFilter{
					State:    domain.TransactionState(state),
					Kind:     domain.TransactionKind(kind),
					Currency: currency,
					Country:  country,
					Limit:    limit,
				})
			})
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind")
	cmd.Flags().StringVar(&currency, "currency", "", "Filter by currency")
	cmd.Flags().StringVar(&country, "country", "", "Filter by country")
	cmd.Flags().IntVarP(&limit, "limit", "n", orchestration.DefaultSearchLimit, "Maximum results")

	return cmd
}

func (c *cli) reconcileCmd() *cobra.Command {
	cfg := orchestration.DefaultReconcilerConfig()

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Mark stale PENDING transactions as ERROR",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store ports.TransactionStore) (interface{}, error) {
				r := orchestration.NewReconciler(store, c.logger, observability.BusinessMetrics{}, cfg)
				return r.ReconcileStalePending(ctx)
			})
		},
	}

	cmd.Flags().DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "Age after which a PENDING record is stale")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum records per sweep")

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), postgres.DefaultPoolConfig(cfg.Database.ConnectionString()))
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), postgres.NewDBExecutor(pool)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

type scheduleOutput struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	BillingDay    int    `json:"billing_day"`
	FrequencyDays int    `json:"frequency_days"`
}

func (c *cli) scheduleCmd() *cobra.Command {
	var frequency int
	var start string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview the recurring window registered for a cadence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := timeutil.Now()
			if start != "" {
				t, err := time.Parse("2006-01-02", start)
				if err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
				ref = t
			}

			var freq *int
			if cmd.Flags().Changed("frequency") {
				freq = &frequency
			}
			s := domain.ComputeSchedule(freq, ref)
			return c.print(scheduleOutput{
				Start:         s.Start.Format("2006-01-02"),
				End:           s.End.Format("2006-01-02"),
				BillingDay:    s.BillingDay,
				FrequencyDays: s.FrequencyDays,
			})
		},
	}

	cmd.Flags().IntVarP(&frequency, "frequency", "f", 0, "Cadence in days")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD), defaults to today")

	return cmd
}
