// Package bootstrap builds the chat service and its dependencies from config.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/suPer8Hu/ai-assistant/internal/ai"
	"github.com/suPer8Hu/ai-assistant/internal/catalog"
	"github.com/suPer8Hu/ai-assistant/internal/chat"
	"github.com/suPer8Hu/ai-assistant/internal/config"
	"github.com/suPer8Hu/ai-assistant/internal/db"
	"github.com/suPer8Hu/ai-assistant/internal/document"
	"github.com/suPer8Hu/ai-assistant/internal/logx"
	"github.com/suPer8Hu/ai-assistant/internal/recommend"
	"github.com/suPer8Hu/ai-assistant/internal/retry"
	"github.com/suPer8Hu/ai-assistant/internal/search"
	"github.com/suPer8Hu/ai-assistant/internal/store/redisstore"
	"gorm.io/gorm"
)

// App is everything a process needs to run turns.
type App struct {
	Cfg     config.Config
	DB      *gorm.DB
	Repo    *chat.Repo
	Catalog *catalog.Store
	Service *chat.Service
	// SharedTurnLock reports whether turns are serialized across processes.
	SharedTurnLock bool

	closers []func() error
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// NewRegistry registers the ollama and openrouter providers. An empty model
// selector resolves to TextModel.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.TextModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		if strings.TrimSpace(cfg.OpenRouterAPIKey) == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
		}
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.TextModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	return reg
}

// New opens storage, loads the catalog and wires the service. Optional
// dependencies (catalog, redis) that fail are logged and left out.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := logx.Module("bootstrap")
	app := &App{Cfg: cfg}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	app.DB = gdb
	app.Repo = chat.NewRepo(gdb)
	if sqlDB, err := gdb.DB(); err == nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	var transcript chat.TranscriptStore
	switch strings.ToLower(cfg.TranscriptBackend) {
	case "db":
		transcript = app.Repo
	case "", "file":
		fs, err := chat.OpenFileStore(cfg.TranscriptFile)
		if err != nil {
			app.Close()
			return nil, err
		}
		transcript = fs
	default:
		app.Close()
		return nil, fmt.Errorf("unsupported TRANSCRIPT_BACKEND=%q", cfg.TranscriptBackend)
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Warn("model catalog not loaded; catalog recommendations disabled", "path", cfg.CatalogFile, "err", err)
	} else {
		log.Info("model catalog loaded", "path", cfg.CatalogFile, "models", cat.Len())
	}
	app.Catalog = cat

	var cache search.Cache
	var locker chat.TurnLocker
	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rds.Ping(pctx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable; search cache disabled", "addr", cfg.RedisAddr, "err", err)
			_ = rds.Close()
		} else {
			cache = rds
			locker = rds.TurnLock(turnLockTTL(cfg))
			app.SharedTurnLock = true
			app.closers = append(app.closers, rds.Close)
		}
	}

	var searcher chat.Searcher
	if cfg.SerperAPIKey != "" {
		searcher = search.NewClient(search.Options{
			URL:    cfg.SerperURL,
			APIKey: cfg.SerperAPIKey,
			Policy: retry.Policy{
				MaxAttempts: cfg.SearchAttempts,
				Delay:       cfg.SearchDelay,
				Timeout:     cfg.SearchTimeout,
			},
			RatePerSec: cfg.SearchRatePerSec,
			Cache:      cache,
			CacheTTL:   cfg.SearchCacheTTL,
		})
	} else {
		log.Warn("SERPER_API_KEY not set; web search disabled")
	}

	reg := NewRegistry(cfg)
	if err := reg.Check(cfg.AIProvider); err != nil {
		app.Close()
		return nil, fmt.Errorf("AI_PROVIDER: %w", err)
	}
	gen := ai.NewClient(reg, cfg.AIProvider, retry.Policy{
		MaxAttempts: cfg.InferenceAttempts,
		Delay:       cfg.InferenceDelay,
		Timeout:     cfg.InferenceTimeout,
	})

	app.Service = chat.NewService(chat.Deps{
		Transcript: transcript,
		Generator:  gen,
		Searcher:   searcher,
		Extractor:  document.NewExtractor(document.DefaultStrategies()),
		Catalog:    cat,
		Engine:     recommend.NewEngine(recommend.DefaultTable()),
		Locker:     locker,
	}, chat.Options{
		TextModel:     cfg.TextModel,
		VisionModel:   cfg.VisionModel,
		DocMaxChars:   cfg.DocMaxChars,
		RecommendMode: cfg.RecommendMode,
	})
	return app, nil
}

// turnLockTTL bounds the slowest possible turn: every inference and search
// attempt timing out, plus the delays between them.
func turnLockTTL(cfg config.Config) time.Duration {
	attempts := func(n int) time.Duration {
		if n <= 0 {
			n = 1
		}
		return time.Duration(n)
	}
	ttl := attempts(cfg.InferenceAttempts)*(cfg.InferenceTimeout+cfg.InferenceDelay) +
		attempts(cfg.SearchAttempts)*(cfg.SearchTimeout+cfg.SearchDelay) +
		30*time.Second
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
