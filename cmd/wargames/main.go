// Command wargames runs causal interventions against a WWI world.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/config"
	"github.com/danielpatrickdp/war-games/go-engine/internal/eval"
	"github.com/danielpatrickdp/war-games/go-engine/internal/extract"
	"github.com/danielpatrickdp/war-games/go-engine/internal/intervene"
	"github.com/danielpatrickdp/war-games/go-engine/internal/logging"
	"github.com/danielpatrickdp/war-games/go-engine/internal/propagate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/rewrite"
	"github.com/danielpatrickdp/war-games/go-engine/internal/service"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wargames",
	Short: "Counterfactual WWI timeline engine",
	Long: `wargames edits the headline of one historical event, derives a state
change from its keywords and propagates it forward through the causal graph.

Every committed change is saved as a new world version with a provenance row.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger, err = logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		interveneCmd,
		propagateCmd,
		serveCmd,
		historyCmd,
		rollbackCmd,
		importCmd,
		exportCmd,
		replayCmd,
		scoresCmd,
		rewriterCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #region wiring

// openStore opens the configured world store.
func openStore(c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case config.DriverFile:
		return store.NewFileStore(c.Store.WorldFile), nil
	default:
		st, err := store.OpenSQLite(c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return st, nil
	}
}

// engineOptions builds intervention options from config, loading the
// keyword rule file when one is set.
func engineOptions(c *config.Config) (intervene.Options, error) {
	opts := intervene.DefaultOptions()
	if c.Extract.RulesFile != "" {
		rs, err := extract.LoadRuleset(c.Extract.RulesFile)
		if err != nil {
			return opts, err
		}
		ex, err := extract.New(rs)
		if err != nil {
			return opts, fmt.Errorf("compile rules %s: %w", c.Extract.RulesFile, err)
		}
		opts.Extractor = ex
	}
	opts.Propagation = propagate.Config{
		DecayLambda: c.Engine.DecayLambda,
		Table:       opts.Propagation.Table,
		NoDecay:     c.Engine.DecayLambda == 0,
	}
	opts.Threshold = c.Engine.TagThreshold
	return opts, nil
}

// buildRewriter returns the configured cascade rewriter, or nil for "none".
// The returned closer is never nil.
func buildRewriter(c *config.Config) (rewrite.Rewriter, func() error, error) {
	noop := func() error { return nil }
	switch c.Rewriter.Backend {
	case config.BackendOpenAI:
		rw, err := rewrite.NewOpenAIRewriter(c.Rewriter.APIKey, c.Rewriter.Model)
		if err != nil {
			return nil, noop, err
		}
		if c.Rewriter.Temperature > 0 {
			rw.SetTemperature(c.Rewriter.Temperature)
		}
		return rewrite.WithRetry(rw, rewrite.DefaultMaxRetries), noop, nil
	case config.BackendGRPC:
		client, err := rewrite.NewGRPCClient(c.Rewriter.Addr)
		if err != nil {
			return nil, noop, err
		}
		return client, client.Close, nil
	default:
		return nil, noop, nil
	}
}

// app is everything a command needs to talk to the world.
type app struct {
	svc     *service.Service
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}
}

// openApp wires store, engine and rewriter into a service.
func openApp(c *config.Config, withRewriter bool) (*app, error) {
	st, err := openStore(c)
	if err != nil {
		return nil, err
	}
	a := &app{closers: []func() error{st.Close}}

	opts, err := engineOptions(c)
	if err != nil {
		a.Close()
		return nil, err
	}

	svcOpts := service.Options{
		Engine:          opts,
		Eval:            eval.DefaultEvalConfig(),
		RewriterBackend: c.Rewriter.Backend,
		RewriteTimeout:  c.Rewriter.Timeout,
		Logger:          logger,
	}
	if withRewriter {
		rw, closeRW, err := buildRewriter(c)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, closeRW)
		svcOpts.Rewriter = rw
	}

	a.svc = service.New(st, svcOpts)
	return a, nil
}

// seed imports the configured world file when the store is empty.
func seed(ctx context.Context, c *config.Config, svc *service.Service) error {
	if c.Store.Driver != config.DriverSQLite {
		return nil
	}
	if _, err := svc.World(ctx); !errors.Is(err, store.ErrNotFound) {
		return err
	}
	w, err := store.ReadWorldFile(c.Store.WorldFile)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("no world loaded and no world file", zap.String("world_file", c.Store.WorldFile))
		return nil
	}
	if err != nil {
		return err
	}
	_, err = svc.Save(ctx, w, store.Meta{Trigger: logging.TriggerImport, Note: "seed " + c.Store.WorldFile})
	return err
}

// #endregion wiring

// #region helpers
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
