package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/cardtable/blackjack-go/internal/api"
	"github.com/cardtable/blackjack-go/internal/blackjack"
	"github.com/cardtable/blackjack-go/internal/config"
	"github.com/cardtable/blackjack-go/internal/service"
	"github.com/cardtable/blackjack-go/internal/store"
)

type CLI struct {
	LogLevel string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	Version  bool   `short:"v" help:"Print version and exit"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("blackjackd"),
		kong.Description("Blackjack game server"))

	if cli.Version {
		info := api.GetVersionInfo()
		fmt.Printf("blackjackd %s (%s, built %s)\n", info.EngineVersion, info.GitCommit, info.BuildTime)
		return
	}

	level, _ := log.ParseLevel(cli.LogLevel)
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		kctx.Exit(1)
	}
}

func run(logger *log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	rules := blackjack.DefaultRules()
	rules.DealerHitsSoft17 = cfg.DealerHitsSoft17
	rules.MaxBet = cfg.MaxBet

	clock := quartz.NewReal()
	players := service.NewPlayerService(db, clock, logger, cfg.StartingBalance)
	games := service.NewGameService(db, clock, logger, rules)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(db, players, games, logger).Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.ListenAddr, "db", cfg.DatabasePath)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := games.RunCleanupLoop(ctx, cfg.CleanupInterval, cfg.Retention)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
