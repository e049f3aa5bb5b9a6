// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/config"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/journal"
)

// InitializeDatabases opens the journal database, applies its schema and
// creates the journal repository
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	journalDB, err := database.New(database.Config{
		Path:    cfg.JournalPath(),
		Profile: database.ProfileJournal,
		Name:    "journal",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize journal database: %w", err)
	}

	if err := journalDB.Migrate(); err != nil {
		journalDB.Close()
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	container.JournalDB = journalDB

	log.Info().Str("path", journalDB.Path()).Msg("Journal database initialized")

	return container, nil
}

// InitializeRepositories creates the data access layer. Metrics must already be set.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.JournalDB == nil {
		return fmt.Errorf("journal database not initialized")
	}

	container.JournalRepo = journal.NewRepository(container.JournalDB.Conn(), container.Metrics, log)
	return nil
}
