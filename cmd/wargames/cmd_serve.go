package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/war-games/go-engine/internal/api"
	"github.com/danielpatrickdp/war-games/go-engine/internal/config"
	"github.com/danielpatrickdp/war-games/go-engine/internal/logging"
	"github.com/danielpatrickdp/war-games/go-engine/internal/rewrite"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the intervention API on server.addr.

With server.watch_world_file set, edits to store.world_file are imported as new
versions. With server.rewriter_addr set, the configured rewriter is also hosted
over gRPC.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var rewriterCmd = &cobra.Command{
	Use:   "rewriter",
	Short: "Cascade rewriter commands",
}

var rewriterServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the OpenAI rewriter over gRPC",
	Long: `Host the OpenAI headline rewriter on server.rewriter_addr (or --addr) so
other wargames processes can use it with rewriter.backend: grpc.`,
	Args: cobra.NoArgs,
	RunE: runRewriterServe,
}

var rewriterAddr string

func init() {
	rewriterServeCmd.Flags().StringVar(&rewriterAddr, "addr", "", "listen address (default server.rewriter_addr, then :50051)")
	rewriterCmd.AddCommand(rewriterServeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := seed(ctx, cfg, a.svc); err != nil {
		return err
	}

	var hostRW rewrite.Rewriter
	if cfg.Server.RewriterAddr != "" {
		rw, closeRW, err := hostedRewriter(cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, closeRW)
		hostRW = rw
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(a.svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Server.WatchWorldFile {
		w := store.NewWatcher(cfg.Store.WorldFile, a.svc, logging.TriggerImport, logger)
		g.Go(func() error {
			logger.Info("watching world file", zap.String("path", cfg.Store.WorldFile))
			return w.Run(gctx)
		})
	}

	if hostRW != nil {
		g.Go(func() error {
			logger.Info("rewriter listening", zap.String("addr", cfg.Server.RewriterAddr))
			return rewrite.Serve(gctx, cfg.Server.RewriterAddr, hostRW)
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func runRewriterServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := rewriterAddr
	if addr == "" {
		addr = cfg.Server.RewriterAddr
	}
	if addr == "" {
		addr = ":50051"
	}

	rw, closeRW, err := hostedRewriter(cfg)
	if err != nil {
		return err
	}
	defer closeRW()

	logger.Info("rewriter listening", zap.String("addr", addr), zap.String("model", cfg.Rewriter.Model))
	return rewrite.Serve(ctx, addr, rw)
}

// hostedRewriter builds the rewriter served over gRPC. It is always the
// OpenAI backend: a hosted gRPC client could forward to itself.
func hostedRewriter(c *config.Config) (rewrite.Rewriter, func() error, error) {
	hosted := *c
	hosted.Rewriter.Backend = config.BackendOpenAI
	return buildRewriter(&hosted)
}
