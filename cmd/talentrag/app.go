package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/config"
	dbMemory "github.com/kailas-cloud/talentrag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/talentrag/internal/db/redis"
	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/talentrag/internal/repository/document"
	"github.com/kailas-cloud/talentrag/internal/repository/embcache"
	sqliterepo "github.com/kailas-cloud/talentrag/internal/repository/sqlite"
	chiTransport "github.com/kailas-cloud/talentrag/internal/transport/chi"
	geminiProv "github.com/kailas-cloud/talentrag/internal/transport/gemini"
	ollamaProv "github.com/kailas-cloud/talentrag/internal/transport/ollama"
	openaiProv "github.com/kailas-cloud/talentrag/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/talentrag/internal/usecase/analytics"
	answeruc "github.com/kailas-cloud/talentrag/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/talentrag/internal/usecase/batch"
	embeddinguc "github.com/kailas-cloud/talentrag/internal/usecase/embedding"
	extractionuc "github.com/kailas-cloud/talentrag/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/talentrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/talentrag/internal/usecase/ingest"
	retrievaluc "github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/talentrag/internal/usecase/scoring"
	searchuc "github.com/kailas-cloud/talentrag/internal/usecase/search"
	usageuc "github.com/kailas-cloud/talentrag/internal/usecase/usage"
)

// resumeStore is what the composition root needs from a résumé repository.
type resumeStore interface {
	Save(ctx context.Context, d *document.Document) error
	Find(ctx context.Context, f filter.Filter) ([]*document.Document, error)
	CountSearchable(ctx context.Context) (int, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementMatches(ctx context.Context, id string) error
}

// jobStore is what the composition root needs from a job repository.
type jobStore interface {
	Save(ctx context.Context, j *job.Job) error
	Get(ctx context.Context, id string) (*job.Job, error)
	ListByPoster(ctx context.Context, poster string, status job.Status, limit int) ([]*job.Job, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementMatches(ctx context.Context, id string) error
}

// kvStore backs the embedding cache and the token budget counters.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) error
}

// storage is one opened database driver.
type storage struct {
	resumes resumeStore
	jobs    jobStore
	kv      kvStore
	pinger  healthuc.DBPinger
	close   func()
}

// application is the wired object graph shared by serve and the one-shot commands.
type application struct {
	cfg    config.Config
	logger *zap.Logger

	storage   storage
	selector  *provider.Selector
	embedder  *embeddinguc.Resilient
	retrieval *retrievaluc.Service
	insights  *analyticsuc.Service
	counters  *analyticsuc.Counters
	ingest    *ingestuc.Service
	batch     *batchuc.Service
	usage     *usageuc.Service
	health    *healthuc.Service
}

// newApplication is the composition root: it opens storage, resolves providers and wires use cases.
// The analytics worker is started; Close stops it and releases storage.
func newApplication(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	st, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	selector, err := buildSelector(ctx, cfg.AI, logger)
	if err != nil {
		st.close()
		return nil, err
	}

	usage := usageuc.New(budget.New(st.kv), usageuc.Limits{
		Daily:   cfg.AI.Budget.DailyTokens,
		Monthly: cfg.AI.Budget.MonthlyTokens,
	}, logger)

	// Embedder chain: selector -> budget guard -> cache (optional) -> resilient (absorbs failures)
	// -> task instruction. Cache hits never touch the budget.
	var inner domain.Embedder = usage.Guard(selector)
	if cfg.AI.CacheEmbeddings {
		inner = embcache.New(inner, st.kv, func() string { return selector.Models().Embedding },
			metrics.EmbeddingCacheTotal, logger)
	}
	embedder := embeddinguc.NewResilient(inner, embeddinguc.Config{
		MaxInputChars: cfg.AI.MaxInputChars,
		Timeout:       time.Duration(cfg.AI.EmbedTimeoutSec) * time.Second,
		Cooldown:      time.Duration(cfg.AI.CooldownSec) * time.Second,
	}, logger)
	queryEmbedder := withInstruction(embedder, cfg.AI.QueryInstruction)
	documentEmbedder := withInstruction(embedder, cfg.AI.DocumentInstruction)

	index := searchuc.New(st.resumes, cfg.Search.Workers, logger)
	synth := answeruc.NewSynthesizer(selector, answeruc.Config{
		Timeout:     time.Duration(cfg.Answer.TimeoutSec) * time.Second,
		Temperature: cfg.Answer.Temperature,
		MaxTokens:   cfg.Answer.MaxTokens,
	})
	insights := analyticsuc.New(st.resumes)
	counters := analyticsuc.NewCounters(st.resumes, st.jobs, cfg.Analytics.Buffer, logger)

	retrieval := retrievaluc.New(retrievaluc.Deps{
		Embedder: queryEmbedder,
		Index:    index,
		Corpus:   st.resumes,
		Jobs:     st.jobs,
		Answerer: synth,
		Scorer:   scoring.New(scoring.DefaultWeights),
		Events:   counters,
		Tracker:  insights,
		Models:   selector,
	}, retrievaluc.Config{
		MaxEvidence:     cfg.Answer.MaxEvidence,
		JobContextLimit: cfg.Search.JobContextLimit,
		Workers:         cfg.Search.Workers,
	}, logger)

	extractor := extractionuc.New(selector, extractionuc.DefaultTimeout, logger)
	ingest := ingestuc.New(extractor, documentEmbedder, st.resumes, st.jobs, logger)

	a := &application{
		cfg:       cfg,
		logger:    logger,
		storage:   st,
		selector:  selector,
		embedder:  embedder,
		retrieval: retrieval,
		insights:  insights,
		counters:  counters,
		ingest:    ingest,
		batch:     batchuc.New(ingest, cfg.Ingest.Workers, logger).WithMaxBatchSize(cfg.Ingest.MaxBatch),
		usage:     usage,
		health:    healthuc.New(st.pinger, selector, embedder),
	}

	go counters.Run(context.Background())

	return a, nil
}

// Close flushes pending analytics events and releases storage.
func (a *application) Close() {
	a.counters.Close()
	a.storage.close()
}

// server builds the HTTP handler.
func (a *application) server() (*chiTransport.Server, []chiTransport.Credential, error) {
	creds := make([]chiTransport.Credential, 0, len(a.cfg.Auth.APIKeys))
	for _, k := range a.cfg.Auth.APIKeys {
		role, err := domain.ParseRole(k.Role)
		if err != nil {
			return nil, nil, fmt.Errorf("auth key for %q: %w", k.Subject, err)
		}
		creds = append(creds, chiTransport.Credential{Key: k.Key, Role: role, Subject: k.Subject})
	}
	return chiTransport.NewServer(a.retrieval, a.insights, a.health, a.usage, a.logger), creds, nil
}

// withInstruction prefixes every text with a model task instruction when one is configured.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (storage, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return storage{}, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return storage{}, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return storage{
			resumes: documentrepo.New(store),
			jobs:    documentrepo.NewJobs(store),
			kv:      store,
			pinger:  store,
			close:   store.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqliterepo.Open(ctx, cfg.Path)
		if err != nil {
			return storage{}, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("Opened database", zap.String("driver", cfg.Driver), zap.String("path", cfg.Path))
		return storage{
			resumes: sqliterepo.NewResumes(store),
			jobs:    sqliterepo.NewJobs(store),
			kv:      store,
			pinger:  store,
			close: func() {
				if err := store.Close(); err != nil {
					logger.Warn("Close sqlite", zap.Error(err))
				}
			},
		}, nil

	case config.DriverMemory:
		store := dbMemory.New()
		logger.Info("Using in-memory database; data is lost on exit")
		return storage{
			resumes: documentrepo.New(store),
			jobs:    documentrepo.NewJobs(store),
			kv:      store,
			pinger:  store,
			close:   store.Close,
		}, nil

	default:
		return storage{}, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildSelector creates every configured provider; the selector picks one lazily.
func buildSelector(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*provider.Selector, error) {
	var hosted []provider.Provider
	if cfg.OpenAI.APIKey != "" {
		hosted = append(hosted, openaiProv.New(&openaiProv.Config{
			Name:           provider.NameOpenAI,
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			ChatModel:      cfg.OpenAI.ChatModel,
			Dimensions:     cfg.OpenAI.Dimensions,
			JSONMode:       true,
			Logger:         logger,
		}))
	}
	if cfg.Gemini.APIKey != "" {
		g, err := geminiProv.New(ctx, &geminiProv.Config{
			APIKey:         cfg.Gemini.APIKey,
			EmbeddingModel: cfg.Gemini.EmbeddingModel,
			ChatModel:      cfg.Gemini.ChatModel,
			Dimensions:     cfg.Gemini.Dimensions,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini provider: %w", err)
		}
		hosted = append(hosted, g)
	}

	// Pass nil interface (not typed nil pointer) when the local provider is off.
	var local provider.Provider
	if cfg.Ollama.Enabled {
		local = ollamaProv.New(&ollamaProv.Config{
			BaseURL:        cfg.Ollama.BaseURL,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
			ChatModel:      cfg.Ollama.ChatModel,
			Logger:         logger,
		})
	}

	logger.Info("AI providers configured",
		zap.String("mode", cfg.Mode),
		zap.Int("hosted", len(hosted)),
		zap.Bool("local", local != nil),
	)
	return provider.NewSelector(provider.Mode(cfg.Mode), hosted, local,
		time.Duration(cfg.ProbeTimeoutSec)*time.Second, logger), nil
}
