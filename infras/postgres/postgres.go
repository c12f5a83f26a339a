package postgres

//nolint:revive
import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
	"venue/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const driverName = "postgres"

// Connection holds the read replica and the primary. Writes and every
// transaction go to Write.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) (*Connection, error) {
	write, err := connect(cfg, "write", cfg.DB.Postgres.Write)
	if err != nil {
		return nil, err
	}

	read, err := connect(cfg, "read", cfg.DB.Postgres.Read)
	if err != nil {
		_ = write.Close()

		return nil, err
	}

	return &Connection{Read: read, Write: write}, nil
}

// DSN builds a lib/pq URL for endpoint. Extra query values are appended, so
// callers such as migrate can pass their own options.
func DSN(cfg *config.Config, endpoint config.PostgresEndpoint, extra url.Values) string {
	query := url.Values{}
	query.Set("sslmode", endpoint.SSLMode)

	if endpoint.Timezone != "" {
		query.Set("timezone", endpoint.Timezone)
	}

	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(endpoint.Username, endpoint.Password),
		Host:     net.JoinHostPort(endpoint.Host, endpoint.Port),
		Path:     "/" + cfg.DatabaseName(endpoint.Name),
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

func connect(cfg *config.Config, name string, endpoint config.PostgresEndpoint) (*sqlx.DB, error) {
	attempts := max(cfg.DB.Postgres.MaxRetry, 1)
	dbName := cfg.DatabaseName(endpoint.Name)

	var err error

	for attempt := 1; attempt <= attempts; attempt++ {
		var db *sqlx.DB

		db, err = sqlx.Connect(driverName, DSN(cfg, endpoint, nil))
		if err == nil {
			db.SetMaxOpenConns(cfg.DB.Postgres.MaxOpenConns)
			db.SetMaxIdleConns(cfg.DB.Postgres.MaxIdleConns)

			log.Info().
				Str("name", name).
				Str("host", endpoint.Host).
				Str("dbName", dbName).
				Msg("Connected to database")

			return db, nil
		}

		log.Error().
			Err(err).
			Str("name", name).
			Str("host", endpoint.Host).
			Str("dbName", dbName).
			Int("attempt", attempt).
			Msg("Failed connecting to database")

		if attempt < attempts {
			time.Sleep(time.Duration(cfg.DB.Postgres.RetryWaitTime) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to %s database %s: %w", name, dbName, err)
}

// Close releases both pools.
func (c *Connection) Close() error {
	return errors.Join(c.Read.Close(), c.Write.Close())
}
