package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"rulebook/internal/config"
	"rulebook/internal/extract"
	"rulebook/internal/extract/gemini"
	"rulebook/internal/extract/openai"
	"rulebook/internal/handler"
	"rulebook/internal/notify/noop"
	"rulebook/internal/notify/ses"
	"rulebook/internal/port"
	"rulebook/internal/router"
	"rulebook/internal/service"
	"rulebook/internal/store/postgres"
	s3store "rulebook/internal/store/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Run records, area and person registries always live in Postgres; only
	// the rulebook document store is backend-selectable.
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store, err := newRulebookStore(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize rulebook store: %w", err)
	}
	runRepo := postgres.NewRunRepo(db)
	registryRepo := postgres.NewRegistryRepo(db)

	extractor, err := newExtractor(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	// Initialize services
	pipelineSvc := service.NewPipelineService(extractor, store, runRepo, service.PipelineConfig{
		MaxInFlight: cfg.Pipeline.MaxInFlight,
		RunTimeout:  cfg.Pipeline.RunTimeout(),
	})
	alignmentSvc := service.NewAlignmentService(store, registryRepo, registryRepo, notifier)

	// Initialize handlers
	rulebookH := handler.NewRulebookHandler(pipelineSvc, store, alignmentSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(rulebookH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func newRulebookStore(cfg *config.Config, db *sqlx.DB) (port.RulebookStore, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return postgres.NewRulebookStore(db), nil
	case "s3":
		return s3store.NewS3Store(&cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

func newExtractor(cfg *config.Config) (port.StructuredExtractor, error) {
	extract.RegisterProvider("openai", func(pc *config.ExtractorProviderConfig) (port.StructuredExtractor, error) {
		return openai.NewExtractor(pc), nil
	})
	extract.RegisterProvider("gemini", func(pc *config.ExtractorProviderConfig) (port.StructuredExtractor, error) {
		return gemini.NewExtractor(pc), nil
	})

	primary, err := extract.NewExtractor(&cfg.Extractor.Primary)
	if err != nil {
		return nil, err
	}

	secondaryCfg := cfg.Extractor.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := extract.NewExtractor(secondaryCfg)
	if err != nil {
		return nil, err
	}
	return extract.NewFallbackExtractor(
		[]port.StructuredExtractor{primary, secondary},
		[]string{cfg.Extractor.Primary.Provider, secondaryCfg.Provider},
	), nil
}

func newNotifier(cfg *config.Config) (port.Notifier, error) {
	switch cfg.Notify.Provider {
	case "ses":
		return ses.NewSESNotifier(&cfg.Notify)
	case "noop", "":
		return noop.NewNoopNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}
