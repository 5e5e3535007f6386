package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gaslens/gaslens/internal/config"
	"github.com/gaslens/gaslens/pkg/database"
	"github.com/gaslens/gaslens/pkg/lifecycle"
	"github.com/gaslens/gaslens/pkg/storage"
)

// Infrastructure owns the long-lived backing systems shared by every
// module: the lifecycle coordinator, the root logger, the database
// pool, and the report archive.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).
		With("version", cfg.Version)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// Start brings up the backing systems under the lifecycle coordinator.
// Systems start in registration order and stop in reverse.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("starting database: %w", err)
	}

	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("starting storage: %w", err)
	}

	return nil
}
