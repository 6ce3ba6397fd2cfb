package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/profile"
)

//go:embed schema
var schemaFS embed.FS

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLitePath = "jobmatch.db"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("not found")

// Repository stores candidates and jobs.
type Repository interface {
	GetCandidate(ctx context.Context, id string) (*profile.Candidate, error)
	// GetCandidates returns the candidates that exist, in the order of ids.
	GetCandidates(ctx context.Context, ids []string) ([]*profile.Candidate, error)
	ListCandidates(ctx context.Context) ([]*profile.Candidate, error)
	SaveCandidate(ctx context.Context, c *profile.Candidate) error

	GetJob(ctx context.Context, id string) (*profile.Job, error)
	// GetJobs returns the jobs that exist, in the order of ids.
	GetJobs(ctx context.Context, ids []string) ([]*profile.Job, error)
	ListJobs(ctx context.Context) ([]*profile.Job, error)
	SaveJob(ctx context.Context, j *profile.Job) error

	Close() error
}

// Config selects and locates the backend.
type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Open connects to the configured backend and applies its schema.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = DefaultSQLitePath
		}
		logger.Debug("opening repository", zap.String("driver", DriverSQLite), zap.String("path", path))
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		logger.Debug("opening repository", zap.String("driver", DriverPostgres))
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown repository driver %q", cfg.Driver)
	}
}

func migrations(dialect string) ([]string, error) {
	dir := "schema/" + dialect
	entries, err := schemaFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile(dir + "/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		scripts = append(scripts, string(data))
	}
	return scripts, nil
}

func validateCandidate(c *profile.Candidate) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return errors.New("candidate id is required")
	}
	return nil
}

func validateJob(j *profile.Job) error {
	if j == nil || strings.TrimSpace(j.ID) == "" {
		return errors.New("job id is required")
	}
	return nil
}

// collect fetches ids one by one, skipping missing ones.
func collect[T any](ctx context.Context, ids []string, get func(context.Context, string) (T, error)) ([]T, error) {
	items := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
