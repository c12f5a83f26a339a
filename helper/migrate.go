package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"venue/config"
	"venue/infras/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const (
	migrationSource = "file://migrations/postgres"

	actionUp     = "up"
	actionDown   = "down"
	actionStepUp = "step-up"
	actionDrop   = "drop"
)

func getConnection(cfg *config.Config) (*migrate.Migrate, error) {
	dsn := postgres.DSN(cfg, cfg.DB.Postgres.Write, url.Values{
		"x-migrations-table": {cfg.DB.Postgres.MigrationTable},
	})

	mig, err := migrate.New(migrationSource, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

func closeMigration(mig *migrate.Migrate) {
	sourceErr, dbErr := mig.Close()
	if err := errors.Join(sourceErr, dbErr); err != nil {
		log.Error().Err(err).Msg("failed to close migration instance")
	}
}

func Runner(config *config.Config, action string) error {
	mig, err := getConnection(config)
	if err != nil {
		return err
	}

	defer closeMigration(mig)

	switch action {
	case actionUp:
		err = mig.Up()
	case actionDown:
		err = mig.Steps(-1)
	case actionStepUp:
		err = mig.Steps(1)
	case actionDrop:
		err = mig.Down()
	default:
		return fmt.Errorf("unknown migration action %q", action)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migration %s: %w", action, err)
	}

	log.Info().Str("action", action).Msg("Database migration completed successfully")

	return nil
}

func Up(config *config.Config) error {
	return Runner(config, actionUp)
}

func StepUp(config *config.Config) error {
	return Runner(config, actionStepUp)
}

func Down(config *config.Config) error {
	return Runner(config, actionDown)
}

func Drop(config *config.Config) error {
	return Runner(config, actionDrop)
}

// Version logs the applied schema version.
func Version(config *config.Config) error {
	mig, err := getConnection(config)
	if err != nil {
		return err
	}

	defer closeMigration(mig)

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migration version")

	return nil
}

// Force records version as applied and clean without running anything.
func Force(config *config.Config, version int) error {
	mig, err := getConnection(config)
	if err != nil {
		return err
	}

	defer closeMigration(mig)

	if err = mig.Force(version); err != nil {
		return fmt.Errorf("error forcing migration version %d: %w", version, err)
	}

	log.Info().Int("version", version).Msg("Database migration version forced")

	return nil
}
