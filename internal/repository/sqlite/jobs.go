package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/vector"
)

// JobRepo stores job postings in the jobs table.
type JobRepo struct {
	db *sql.DB
}

// NewJobs creates a job repository over the store.
func NewJobs(s *Store) *JobRepo {
	return &JobRepo{db: s.db}
}

// Save creates or replaces a job posting. Counters survive replacement.
func (r *JobRepo) Save(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	body := *j
	body.Embedding = nil
	body.ViewCount, body.MatchCount = 0, 0
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs(id, posted_by, status, created_at, body, embedding)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			posted_by = excluded.posted_by,
			status = excluded.status,
			created_at = excluded.created_at,
			body = excluded.body,
			embedding = excluded.embedding`,
		j.ID, j.PostedBy, string(j.Status), j.CreatedAt.UnixNano(), string(data), vector.ToBytes(j.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", j.ID, err)
	}
	return nil
}

// Get returns a job by ID.
func (r *JobRepo) Get(ctx context.Context, id string) (*job.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT body, embedding, views, matches FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// ListByPoster returns up to limit jobs posted by poster in the given status, newest first.
// An empty status matches every status; limit <= 0 means no limit.
func (r *JobRepo) ListByPoster(ctx context.Context, poster string, status job.Status, limit int) ([]*job.Job, error) {
	query := `SELECT body, embedding, views, matches FROM jobs WHERE posted_by = ?`
	args := []any{poster}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

// IncrementViews bumps the job view counter.
func (r *JobRepo) IncrementViews(ctx context.Context, id string) error {
	return bump(ctx, r.db, `UPDATE jobs SET views = views + 1 WHERE id = ?`, id)
}

// IncrementMatches bumps the job match counter.
func (r *JobRepo) IncrementMatches(ctx context.Context, id string) error {
	return bump(ctx, r.db, `UPDATE jobs SET matches = matches + 1 WHERE id = ?`, id)
}

func scanJob(row rowScanner) (*job.Job, error) {
	var (
		body      string
		embedding []byte
		views     int64
		matches   int64
	)
	if err := row.Scan(&body, &embedding, &views, &matches); err != nil {
		return nil, err
	}
	var j job.Job
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	vec, err := vector.FromBytes(embedding)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	j.Embedding = vec
	j.ViewCount = views
	j.MatchCount = matches
	return &j, nil
}
