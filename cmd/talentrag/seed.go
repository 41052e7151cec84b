package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/talentrag/internal/domain/job"
	batchuc "github.com/kailas-cloud/talentrag/internal/usecase/batch"
	ingestuc "github.com/kailas-cloud/talentrag/internal/usecase/ingest"
)

const defaultSeedPath = "fixtures/seed.yaml"

// seedFile is the fixture format: résumé texts plus job postings.
type seedFile struct {
	Resumes []seedResume `yaml:"resumes"`
	Jobs    []seedJob    `yaml:"jobs"`
}

type seedResume struct {
	ID                string  `yaml:"id"`
	UploadedBy        string  `yaml:"uploaded_by"`
	Location          string  `yaml:"location"`
	YearsOfExperience float64 `yaml:"years_of_experience"`
	Text              string  `yaml:"text"`
}

type seedSkill struct {
	Name     string `yaml:"name"`
	Level    string `yaml:"level"`
	Required bool   `yaml:"required"`
}

type seedJob struct {
	ID              string      `yaml:"id"`
	Title           string      `yaml:"title"`
	Company         string      `yaml:"company"`
	Location        string      `yaml:"location"`
	Description     string      `yaml:"description"`
	Requirements    []string    `yaml:"requirements"`
	Skills          []seedSkill `yaml:"skills"`
	ExperienceLevel string      `yaml:"experience_level"`
	Status          string      `yaml:"status"`
	PostedBy        string      `yaml:"posted_by"`
}

func (s seedJob) toDomain() (*job.Job, error) {
	tier, err := job.ParseTier(s.ExperienceLevel)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", s.ID, err)
	}
	skills := make([]job.Skill, len(s.Skills))
	for i, sk := range s.Skills {
		skills[i] = job.Skill{Name: sk.Name, Level: sk.Level, Required: sk.Required}
	}
	return &job.Job{
		ID:              s.ID,
		Title:           s.Title,
		Company:         s.Company,
		Location:        s.Location,
		Description:     s.Description,
		Requirements:    s.Requirements,
		Skills:          skills,
		ExperienceLevel: tier,
		Status:          job.Status(s.Status),
		PostedBy:        s.PostedBy,
	}, nil
}

// parseSeed decodes a fixture file, rejecting unknown keys.
func parseSeed(r io.Reader) (seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f seedFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

func loadSeed(path string) (seedFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return parseSeed(bytes.NewReader(data))
}

// seedSummary counts what seed stored.
type seedSummary struct {
	Resumes  int `json:"resumes"`
	Failed   int `json:"failedEmbeddings"`
	Fallback int `json:"fallbackExtractions"`
	Jobs     int `json:"jobs"`
}

// jobIngester stores job postings.
type jobIngester interface {
	IngestJob(ctx context.Context, j *job.Job) error
}

// runSeed ingests every fixture. Jobs go first so a failing résumé leaves them usable.
func runSeed(ctx context.Context, jobs jobIngester, resumes *batchuc.Service, f seedFile, logger *zap.Logger) (seedSummary, error) {
	var sum seedSummary
	for _, sj := range f.Jobs {
		j, err := sj.toDomain()
		if err != nil {
			return sum, err
		}
		if err := jobs.IngestJob(ctx, j); err != nil {
			return sum, fmt.Errorf("seed job %q: %w", sj.ID, err)
		}
		sum.Jobs++
	}

	inputs := make([]ingestuc.Input, len(f.Resumes))
	for i, sr := range f.Resumes {
		inputs[i] = ingestuc.Input{
			ID:                sr.ID,
			Text:              sr.Text,
			UploadedBy:        sr.UploadedBy,
			Location:          sr.Location,
			YearsOfExperience: sr.YearsOfExperience,
		}
	}
	results := ingestChunked(ctx, resumes, inputs)
	bs := batchuc.Summarize(results)
	sum.Resumes = bs.OK
	sum.Failed = bs.Unsearchable
	sum.Fallback = bs.Fallback

	logger.Info("Seed complete",
		zap.Int("resumes", sum.Resumes),
		zap.Int("jobs", sum.Jobs),
		zap.Int("failed_embeddings", sum.Failed),
	)
	for _, r := range results {
		if r.Status != batchuc.StatusOK {
			return sum, fmt.Errorf("seed resume %q: %w", r.ID, r.Err)
		}
	}
	return sum, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Load résumé and job fixtures (default " + defaultSeedPath + ")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultSeedPath
		if len(args) == 1 {
			path = args[0]
		}
		f, err := loadSeed(path)
		if err != nil {
			return err
		}
		return withApplication(cmd, func(ctx context.Context, a *application) error {
			sum, err := runSeed(ctx, a.ingest, a.batch, f, a.logger)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
