package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/jobmatch/internal/profile"
)

// SQLite is a file-backed repository.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	scripts, err := migrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, script := range scripts {
		if _, err := db.ExecContext(ctx, script); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

const sqliteCandidateColumns = `id, name, skills, experience, track, interests, education`

func (s *SQLite) GetCandidate(ctx context.Context, id string) (*profile.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteCandidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanSQLiteCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLite) GetCandidates(ctx context.Context, ids []string) ([]*profile.Candidate, error) {
	return collect(ctx, ids, s.GetCandidate)
}

func (s *SQLite) ListCandidates(ctx context.Context) ([]*profile.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteCandidateColumns+` FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*profile.Candidate
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *SQLite) SaveCandidate(ctx context.Context, c *profile.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}
	skills, err := encodeList(c.Skills)
	if err != nil {
		return err
	}
	interests, err := encodeList(c.Interests)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name, skills, experience, track, interests, education, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, skills = excluded.skills, experience = excluded.experience,
		   track = excluded.track, interests = excluded.interests, education = excluded.education,
		   updated_at = excluded.updated_at`,
		c.ID, c.Name, skills, c.Experience.String(), c.Track, interests, c.Education, now(),
	)
	if err != nil {
		return fmt.Errorf("save candidate %s: %w", c.ID, err)
	}
	return nil
}

const sqliteJobColumns = `id, title, company, required_skills, experience, track, job_type, location`

func (s *SQLite) GetJob(ctx context.Context, id string) (*profile.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteJobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanSQLiteJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

func (s *SQLite) GetJobs(ctx context.Context, ids []string) ([]*profile.Job, error) {
	return collect(ctx, ids, s.GetJob)
}

func (s *SQLite) ListJobs(ctx context.Context) ([]*profile.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteJobColumns+` FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*profile.Job
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLite) SaveJob(ctx context.Context, j *profile.Job) error {
	if err := validateJob(j); err != nil {
		return err
	}
	skills, err := encodeList(j.RequiredSkills)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, company, required_skills, experience, track, job_type, location, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, company = excluded.company, required_skills = excluded.required_skills,
		   experience = excluded.experience, track = excluded.track, job_type = excluded.job_type,
		   location = excluded.location, updated_at = excluded.updated_at`,
		j.ID, j.Title, j.Company, skills, j.Experience.String(), j.Track, j.JobType, j.Location, now(),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", j.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCandidate(row scanner) (*profile.Candidate, error) {
	var (
		c                 profile.Candidate
		experience        string
		skills, interests string
	)
	if err := row.Scan(&c.ID, &c.Name, &skills, &experience, &c.Track, &interests, &c.Education); err != nil {
		return nil, err
	}

	var err error
	if c.Skills, err = decodeList(skills); err != nil {
		return nil, err
	}
	if c.Interests, err = decodeList(interests); err != nil {
		return nil, err
	}
	c.Experience = profile.ParseExperienceLevel(experience)
	return &c, nil
}

func scanSQLiteJob(row scanner) (*profile.Job, error) {
	var (
		j          profile.Job
		experience string
		skills     string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &skills, &experience, &j.Track, &j.JobType, &j.Location); err != nil {
		return nil, err
	}

	var err error
	if j.RequiredSkills, err = decodeList(skills); err != nil {
		return nil, err
	}
	j.Experience = profile.ParseExperienceLevel(experience)
	return &j, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
