package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"duallist/internal/api"
	"duallist/internal/batch"
	"duallist/internal/config"
	"duallist/internal/logging"
	"duallist/internal/persist"
	"duallist/internal/queue"
	"duallist/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfgPath := flag.String("config", "", "path to a .yaml or .toml config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	items := flag.Int("items", -1, "number of generated items (overrides config)")
	dataDir := flag.String("data", "", "persistence directory (overrides config)")
	noPersist := flag.Bool("no-persist", false, "keep state in memory only")
	level := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	banner := logging.Banner(os.Stderr, "duallist")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", banner, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *items >= 0 {
		cfg.Items.Count = *items
	}
	if *dataDir != "" {
		cfg.Persist.Dir = *dataDir
	}
	if *noPersist {
		cfg.Persist.Enabled = false
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", banner, err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s shutdown complete\n", banner)
}

func run(cfg config.Config, log *slog.Logger) error {
	start := time.Now()
	s := store.New(store.Config{Count: cfg.Items.Count, Seed: cfg.Items.Seed})
	log.Info("items generated", "count", s.Len(), "took", time.Since(start))

	var (
		repo    batch.Repository = s
		journal *persist.Journal
	)
	if cfg.Persist.Enabled {
		j, err := persist.Open(cfg.Persist.Dir, s, log)
		if err != nil {
			return err
		}
		journal, repo = j, j
	}

	q := queue.New(log)
	proc := batch.New(q, repo, batch.Config{
		InsertInterval:    cfg.Batch.InsertInterval.Std(),
		ReadWriteInterval: cfg.Batch.ReadWriteInterval.Std(),
		Logger:            log,
	})

	gin.SetMode(gin.ReleaseMode)
	srv := api.NewHTTPServer(q, proc, cfg.Addr, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	proc.Start()

	g.Go(func() error {
		log.Info("server starting", "addr", srv.Addr())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", srv.Addr(), err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("received shutdown signal, shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		if err != nil {
			log.Warn("graceful shutdown failed", "err", err)
		}
		q.Close()
		proc.Stop()
		return nil
	})

	if journal != nil {
		g.Go(func() error {
			return journal.Run(gctx, cfg.Persist.CheckpointInterval.Std())
		})
	}

	err := g.Wait()

	if journal != nil {
		if cerr := journal.Checkpoint(); cerr != nil {
			log.Error("final checkpoint failed", "err", cerr)
		}
		if cerr := journal.Close(); cerr != nil {
			log.Warn("close op-log", "err", cerr)
		}
	}
	return err
}
