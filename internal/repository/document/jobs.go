package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/talentrag/internal/db"
	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
)

const jobPrefix = domain.KeyPrefix + "job:"

// JobRepo stores job postings next to résumés in the same keyspace.
type JobRepo struct {
	store store
}

// NewJobs creates a job repository.
func NewJobs(s store) *JobRepo {
	return &JobRepo{store: s}
}

// Save creates or replaces a job posting.
func (r *JobRepo) Save(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	data, err := json.Marshal(toJobRecord(j))
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.store.Set(ctx, jobKey(j.ID), data); err != nil {
		return fmt.Errorf("set %s: %w", jobKey(j.ID), err)
	}
	return nil
}

// Get returns a job by ID with its counters.
func (r *JobRepo) Get(ctx context.Context, id string) (*job.Job, error) {
	raw, err := r.store.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get %s: %w", jobKey(id), err)
	}
	j, err := decodeJob(raw)
	if err != nil {
		return nil, err
	}
	if err := r.attachCounters(ctx, []*job.Job{j}); err != nil {
		return nil, err
	}
	return j, nil
}

// ListByPoster returns up to limit jobs posted by poster in the given status, newest first.
// An empty status matches every status; limit <= 0 means no limit.
func (r *JobRepo) ListByPoster(ctx context.Context, poster string, status job.Status, limit int) ([]*job.Job, error) {
	keys, err := r.store.Scan(ctx, jobPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget jobs: %w", err)
	}

	var out []*job.Job
	for _, raw := range values {
		if raw == nil {
			continue
		}
		j, err := decodeJob(raw)
		if err != nil {
			continue
		}
		if j.PostedBy != poster {
			continue
		}
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, j)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if err := r.attachCounters(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementViews bumps the job view counter.
func (r *JobRepo) IncrementViews(ctx context.Context, id string) error {
	return incrField(ctx, r.store, jobStatsKey(id), fieldViews)
}

// IncrementMatches bumps the job match counter.
func (r *JobRepo) IncrementMatches(ctx context.Context, id string) error {
	return incrField(ctx, r.store, jobStatsKey(id), fieldMatches)
}

func (r *JobRepo) attachCounters(ctx context.Context, jobs []*job.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	keys := make([]string, len(jobs))
	for i, j := range jobs {
		keys[i] = jobStatsKey(j.ID)
	}
	stats, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return fmt.Errorf("load job counters: %w", err)
	}
	for i, m := range stats {
		jobs[i].ViewCount = parseCounter(m[fieldViews])
		jobs[i].MatchCount = parseCounter(m[fieldMatches])
	}
	return nil
}

func decodeJob(raw []byte) (*job.Job, error) {
	var rec jobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return rec.toJob()
}

func jobKey(id string) string {
	return jobPrefix + id
}

func jobStatsKey(id string) string {
	return statsPrefix + "job:" + id
}
