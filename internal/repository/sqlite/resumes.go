package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/vector"
)

// ResumeRepo stores résumés in the resumes table.
type ResumeRepo struct {
	db *sql.DB
}

// NewResumes creates a résumé repository over the store.
func NewResumes(s *Store) *ResumeRepo {
	return &ResumeRepo{db: s.db}
}

// Save creates or replaces a résumé. Counters survive replacement.
func (r *ResumeRepo) Save(ctx context.Context, d *document.Document) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	body := *d
	body.Embedding = nil
	body.ViewCount, body.MatchCount = 0, 0
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO resumes(id, status, years, location_lc, has_embedding, created_at, body, embedding)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			years = excluded.years,
			location_lc = excluded.location_lc,
			has_embedding = excluded.has_embedding,
			created_at = excluded.created_at,
			body = excluded.body,
			embedding = excluded.embedding`,
		d.ID, string(d.Status), d.YearsOfExperience, strings.ToLower(d.Location),
		boolToInt(len(d.Embedding) > 0), d.CreatedAt.UnixNano(), string(data), vector.ToBytes(d.Embedding),
	)
	if err != nil {
		return fmt.Errorf("upsert resume %s: %w", d.ID, err)
	}
	return nil
}

// Get returns a résumé by ID.
func (r *ResumeRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT body, embedding, views, matches FROM resumes WHERE id = ?`, id)
	d, err := scanResume(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get resume %s: %w", id, err)
	}
	return d, nil
}

// Find returns every searchable résumé that passes the filter.
func (r *ResumeRepo) Find(ctx context.Context, f filter.Filter) ([]*document.Document, error) {
	query, args := findQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find resumes: %w", err)
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		d, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return out, nil
}

// CountSearchable returns the number of completed résumés with an embedding.
func (r *ResumeRepo) CountSearchable(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM resumes WHERE status = ? AND has_embedding = 1`,
		string(document.StatusCompleted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count resumes: %w", err)
	}
	return n, nil
}

// Delete removes a résumé.
func (r *ResumeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete resume %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// IncrementViews bumps the résumé view counter.
func (r *ResumeRepo) IncrementViews(ctx context.Context, id string) error {
	return bump(ctx, r.db, `UPDATE resumes SET views = views + 1 WHERE id = ?`, id)
}

// IncrementMatches bumps the résumé match counter.
func (r *ResumeRepo) IncrementMatches(ctx context.Context, id string) error {
	return bump(ctx, r.db, `UPDATE resumes SET matches = matches + 1 WHERE id = ?`, id)
}

// findQuery pushes status, experience band and location down to SQL.
func findQuery(f filter.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT body, embedding, views, matches FROM resumes WHERE status = ? AND has_embedding = 1`)
	args := []any{string(document.StatusCompleted)}

	if band, ok := f.Band(); ok {
		sb.WriteString(` AND years >= ?`)
		args = append(args, band.Min)
		if band.Max >= 0 {
			sb.WriteString(` AND years < ?`)
			args = append(args, band.Max)
		}
	}
	if loc := f.Location(); loc != "" {
		sb.WriteString(` AND instr(location_lc, ?) > 0`)
		args = append(args, loc)
	}
	sb.WriteString(` ORDER BY id`)
	return sb.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (*document.Document, error) {
	var (
		body      string
		embedding []byte
		views     int64
		matches   int64
	)
	if err := row.Scan(&body, &embedding, &views, &matches); err != nil {
		return nil, err
	}
	var d document.Document
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("unmarshal resume: %w", err)
	}
	vec, err := vector.FromBytes(embedding)
	if err != nil {
		return nil, fmt.Errorf("resume %s: %w", d.ID, err)
	}
	d.Embedding = vec
	d.ViewCount = views
	d.MatchCount = matches
	return &d, nil
}

func bump(ctx context.Context, conn *sql.DB, stmt, id string) error {
	if _, err := conn.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("bump counter %s: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
