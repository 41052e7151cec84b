package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	domdoc "github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

const (
	resumePrefix = domain.KeyPrefix + "resume:"
	statsPrefix  = domain.KeyPrefix + "stats:"

	fieldViews   = "views"
	fieldMatches = "matches"
)

// store is the consumer interface for résumés and jobs (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	HIncrBy(ctx context.Context, key, field string, val int64) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo stores résumés as JSON values with counters in a side hash.
// It works against any db.Store: Redis, Valkey or the in-memory store.
type Repo struct {
	store store
}

// New creates a résumé repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save creates or replaces a résumé. Counters are kept in a separate hash and never overwritten.
func (r *Repo) Save(ctx context.Context, d *domdoc.Document) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	data, err := json.Marshal(toRecord(d))
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}
	key := resumeKey(d.ID)
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a résumé by ID with its counters.
func (r *Repo) Get(ctx context.Context, id string) (*domdoc.Document, error) {
	key := resumeKey(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	d, err := decodeResume(raw)
	if err != nil {
		return nil, err
	}
	docs := []*domdoc.Document{d}
	if err := r.attachCounters(ctx, docs); err != nil {
		return nil, err
	}
	return d, nil
}

// Find returns every searchable résumé that passes the filter.
// A value that fails to decode is skipped rather than failing the whole scan.
func (r *Repo) Find(ctx context.Context, f filter.Filter) ([]*domdoc.Document, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	if err := r.attachCounters(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountSearchable returns the number of completed résumés with an embedding.
func (r *Repo) CountSearchable(ctx context.Context) (int, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range all {
		if d.Searchable() {
			n++
		}
	}
	return n, nil
}

// Delete removes a résumé and its counters.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Get(ctx, resumeKey(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrDocumentNotFound
		}
		return fmt.Errorf("get %s: %w", resumeKey(id), err)
	}
	if err := r.store.Del(ctx, resumeKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", resumeKey(id), err)
	}
	if err := r.store.Del(ctx, resumeStatsKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", resumeStatsKey(id), err)
	}
	return nil
}

// IncrementViews bumps the résumé view counter.
func (r *Repo) IncrementViews(ctx context.Context, id string) error {
	return incrField(ctx, r.store, resumeStatsKey(id), fieldViews)
}

// IncrementMatches bumps the résumé match counter.
func (r *Repo) IncrementMatches(ctx context.Context, id string) error {
	return incrField(ctx, r.store, resumeStatsKey(id), fieldMatches)
}

func incrField(ctx context.Context, s store, key, field string) error {
	if err := s.HIncrBy(ctx, key, field, 1); err != nil {
		return fmt.Errorf("hincrby %s %s: %w", key, field, err)
	}
	return nil
}

func (r *Repo) loadAll(ctx context.Context) ([]*domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, resumePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan resumes: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget resumes: %w", err)
	}
	docs := make([]*domdoc.Document, 0, len(values))
	for _, raw := range values {
		if raw == nil {
			continue
		}
		d, err := decodeResume(raw)
		if err != nil {
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *Repo) attachCounters(ctx context.Context, docs []*domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = resumeStatsKey(d.ID)
	}
	stats, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return fmt.Errorf("load resume counters: %w", err)
	}
	for i, m := range stats {
		docs[i].ViewCount = parseCounter(m[fieldViews])
		docs[i].MatchCount = parseCounter(m[fieldMatches])
	}
	return nil
}

func decodeResume(raw []byte) (*domdoc.Document, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal resume: %w", err)
	}
	return rec.toDocument()
}

func parseCounter(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func resumeKey(id string) string {
	return resumePrefix + id
}

func resumeStatsKey(id string) string {
	return statsPrefix + "resume:" + id
}
