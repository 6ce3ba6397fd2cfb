package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/jobmatch/internal/profile"
)

// Postgres is a repository backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pool for dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return p, nil
}

func (p *Postgres) runMigrations(ctx context.Context) error {
	scripts, err := migrations("postgres")
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := p.pool.Exec(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const pgCandidateColumns = `id, name, skills, experience, track, interests, education`

func (p *Postgres) GetCandidate(ctx context.Context, id string) (*profile.Candidate, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+pgCandidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanPgCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) GetCandidates(ctx context.Context, ids []string) ([]*profile.Candidate, error) {
	return collect(ctx, ids, p.GetCandidate)
}

func (p *Postgres) ListCandidates(ctx context.Context) ([]*profile.Candidate, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgCandidateColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*profile.Candidate
	for rows.Next() {
		c, err := scanPgCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (p *Postgres) SaveCandidate(ctx context.Context, c *profile.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, skills, experience, track, interests, education, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, skills = EXCLUDED.skills, experience = EXCLUDED.experience,
		   track = EXCLUDED.track, interests = EXCLUDED.interests, education = EXCLUDED.education,
		   updated_at = now()`,
		c.ID, c.Name, nonNil(c.Skills), c.Experience.String(), c.Track, nonNil(c.Interests), c.Education,
	)
	if err != nil {
		return fmt.Errorf("save candidate %s: %w", c.ID, err)
	}
	return nil
}

const pgJobColumns = `id, title, company, required_skills, experience, track, job_type, location`

func (p *Postgres) GetJob(ctx context.Context, id string) (*profile.Job, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id)
	j, err := scanPgJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

func (p *Postgres) GetJobs(ctx context.Context, ids []string) ([]*profile.Job, error) {
	return collect(ctx, ids, p.GetJob)
}

func (p *Postgres) ListJobs(ctx context.Context) ([]*profile.Job, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+pgJobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*profile.Job
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (p *Postgres) SaveJob(ctx context.Context, j *profile.Job) error {
	if err := validateJob(j); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, company, required_skills, experience, track, job_type, location, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, company = EXCLUDED.company, required_skills = EXCLUDED.required_skills,
		   experience = EXCLUDED.experience, track = EXCLUDED.track, job_type = EXCLUDED.job_type,
		   location = EXCLUDED.location, updated_at = now()`,
		j.ID, j.Title, j.Company, nonNil(j.RequiredSkills), j.Experience.String(), j.Track, j.JobType, j.Location,
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", j.ID, err)
	}
	return nil
}

func scanPgCandidate(row pgx.Row) (*profile.Candidate, error) {
	var (
		c          profile.Candidate
		experience string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Skills, &experience, &c.Track, &c.Interests, &c.Education); err != nil {
		return nil, err
	}
	c.Experience = profile.ParseExperienceLevel(experience)
	return &c, nil
}

func scanPgJob(row pgx.Row) (*profile.Job, error) {
	var (
		j          profile.Job
		experience string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.RequiredSkills, &experience, &j.Track, &j.JobType, &j.Location); err != nil {
		return nil, err
	}
	j.Experience = profile.ParseExperienceLevel(experience)
	return &j, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
