package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rmraya/swordfish-core/internal/adapters/driven/config/file"
	tm "github.com/rmraya/swordfish-core/internal/adapters/driven/engine/memory"
	"github.com/rmraya/swordfish-core/internal/adapters/driven/merger/text"
	"github.com/rmraya/swordfish-core/internal/adapters/driven/storage/sqlite"
	"github.com/rmraya/swordfish-core/internal/adapters/driving/cli"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
	"github.com/rmraya/swordfish-core/internal/core/services"
	"github.com/rmraya/swordfish-core/internal/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ===== Configuration =====
	cfg, err := file.NewConfigStore(os.Getenv("SWORDFISH_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	settings := services.NewSettingsService(cfg)

	// ===== Services =====
	engines := services.NewEngineRegistry()
	tasks := services.NewTaskRunner(settings.Tasks())
	defer func() {
		tasks.Shutdown()
		if err := engines.CloseAll(); err != nil {
			logger.Warn("Closing engines: %v", err)
		}
	}()

	open := func(ctx context.Context, path, dataDir string) (driving.SegmentService, error) {
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, err
		}
		store := services.NewSegmentStore(db.SegmentRepository(), engines, settings.Store())
		if err := store.Open(ctx, path); err != nil {
			return nil, errors.Join(err, store.Close())
		}
		return store, nil
	}

	// Loading an id again replaces the engine, so files can be reloaded.
	load := func(id, path, srcLang, tgtLang string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		engine := tm.New(id)
		n, err := engine.Import(f, srcLang, tgtLang)
		if err != nil {
			return err
		}
		if err := engines.Close(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Closing engine %s: %v", id, err)
		}
		logger.Debug("Loaded %d entries into %s", n, id)
		return engines.Register(id, engine)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Open:       open,
		LoadEngine: load,
		Tasks:      tasks,
		Settings:   settings,
		Merger:     text.New(),
	})

	// cobra prints the error itself
	return cli.Execute(ctx)
}
