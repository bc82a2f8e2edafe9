// Package main is the entry point for the bosflow server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bosflow/bosflow/internal/backup"
	"github.com/bosflow/bosflow/internal/capability"
	"github.com/bosflow/bosflow/internal/config"
	"github.com/bosflow/bosflow/internal/evolution"
	"github.com/bosflow/bosflow/internal/observability"
	"github.com/bosflow/bosflow/internal/rulepack"
	"github.com/bosflow/bosflow/internal/schema"
	"github.com/bosflow/bosflow/internal/transport"
	"github.com/bosflow/bosflow/internal/validation"
	"github.com/bosflow/bosflow/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

// rulePackReloadInterval is how often the hot-reload loop rescans the
// rule pack directories.
const rulePackReloadInterval = 60 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Parse CLI flags.
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Step 2: Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Step 3: Initialize telemetry (logger, tracer, metrics).
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "bosflow", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 4: Build the validation engine from built-in rules plus any
	// configured rule packs.
	engine := validation.DefaultEngine()
	loader := rulepack.NewLoader()
	packValidator := rulepack.NewValidator()

	loaded, err := loadRulePacks(engine, loader, packValidator, cfg.RulePacks, logger)
	if err != nil {
		logger.Error("rule pack loading failed", zap.Error(err))
		return 1
	}
	metrics.SetRulesLoaded(float64(countRules(engine)))

	// Step 5: Build the post-migration schema gate.
	gate, err := buildSchemaGate(cfg.Schema)
	if err != nil {
		logger.Error("schema gate initialization failed", zap.Error(err))
		return 1
	}

	// Step 6: Build the backup store.
	backupStore, err := backup.NewStore(ctx, cfg.Backup)
	if err != nil {
		logger.Error("backup store initialization failed", zap.Error(err))
		return 1
	}
	logger.Info("backup store ready", zap.String("driver", driverName(cfg.Backup.Driver)))

	// Step 7: Build the evolution service.
	registry := evolution.NewRegistry()
	if err := evolution.RegisterCore(registry); err != nil {
		logger.Error("core migration registration failed", zap.Error(err))
		return 1
	}

	locker, lockerCloser, err := buildLocker(cfg.Evolution.Lock, logger)
	if err != nil {
		logger.Error("evolution locker initialization failed", zap.Error(err))
		return 1
	}

	executor := evolution.NewExecutor(backupStore, gate)
	evolutionSvc := evolution.NewService(registry, executor, locker, logger, metrics,
		evolution.WithLockTTL(cfg.Evolution.Lock.TTL))

	// Step 8-9: Build the authenticator and capability resolver. With
	// identity disabled there are no roles to resolve, so authorization
	// is skipped along with authentication.
	var authenticate func(http.Handler) http.Handler
	var capResolver model.CapabilityResolver
	if cfg.Identity.Enabled {
		jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL)
		authenticate = transport.JWTAuthenticator(cfg.Identity, jwks)

		capResolver, err = buildCapabilityResolver(cfg.Capability, metrics)
		if err != nil {
			logger.Error("capability resolver initialization failed", zap.Error(err))
			return 1
		}
	} else {
		logger.Warn("identity disabled, API runs unauthenticated")
	}

	// Step 10: Build readiness checks from data known at startup.
	ready := observability.ReadinessChecks{
		RulesLoaded:  func() bool { return len(engine.Categories()) > 0 },
		SchemaLoaded: func() bool { return gate != nil || !cfg.Schema.Enabled },
	}
	if hc, ok := backupStore.(observability.HealthChecker); ok {
		ready.BackupStore = hc
	}
	if hc, ok := locker.(observability.HealthChecker); ok {
		ready.LockStore = hc
	}

	// Step 11: Build the HTTP router.
	router := transport.NewRouter(transport.Dependencies{
		Config:             cfg,
		Authenticate:       authenticate,
		CapabilityResolver: capResolver,
		Validation:         engine,
		Evolution:          evolutionSvc,
		Backups:            backupStore,
		Metrics:            metrics,
		Ready:              ready,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Step 12: Start background tasks.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	if cfg.RulePacks.HotReload {
		go runRulePackReloader(bgCtx, engine, loader, packValidator, cfg.RulePacks, metrics, logger)
	}

	// Step 13: Start HTTP server.
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.Int("rule_packs", loaded),
		zap.Int("migrations", registry.Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Graceful shutdown sequence.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Cancel background tasks.
	bgCancel()

	// Close stores.
	if lockerCloser != nil {
		lockerCloser()
	}

	// Flush telemetry.
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// loadRulePacks scans the configured directories and installs every
// valid pack into the engine. Missing directories are skipped so fresh
// deployments can run on the built-in rules alone. Returns the number
// of packs installed.
func loadRulePacks(engine *validation.Engine, loader *rulepack.Loader, validator *rulepack.Validator, cfg config.RulePacksConfig, logger *zap.Logger) (int, error) {
	dirs := existingDirs(cfg.Directories)
	if len(dirs) == 0 {
		logger.Info("no rule pack directories found, using built-in rules only")
		return 0, nil
	}

	packs, err := loader.LoadAll(dirs)
	if err != nil {
		return 0, err
	}

	installed := 0
	for _, pack := range packs {
		if verrs := validator.Validate([]rulepack.RulePack{pack}); len(verrs) > 0 {
			for _, ve := range verrs {
				logger.Error("rule pack validation error",
					zap.String("file", pack.SourceFile), zap.String("error", ve.Error()))
			}
			if cfg.StrictChecksums {
				return 0, fmt.Errorf("rule pack %s failed validation", pack.SourceFile)
			}
			continue
		}
		engine.AddRules(pack.Category, pack.Rules)
		installed++
		logger.Info("rule pack installed",
			zap.String("category", pack.Category),
			zap.String("file", pack.SourceFile),
			zap.String("checksum", pack.Checksum),
			zap.Int("rules", len(pack.Rules)),
		)
	}
	return installed, nil
}

// existingDirs filters out directories that do not exist.
func existingDirs(dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}

// countRules totals the installed rules across all categories.
func countRules(engine *validation.Engine) int {
	total := 0
	for _, cat := range engine.Categories() {
		total += len(engine.Rules(cat))
	}
	return total
}

// buildSchemaGate creates the structural validator used after
// migrations. Returns nil when the gate is disabled.
func buildSchemaGate(cfg config.SchemaConfig) (evolution.SchemaGate, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SpecFile != "" {
		v, err := schema.NewValidatorFromFile(cfg.SpecFile)
		if err != nil {
			return nil, fmt.Errorf("schema gate: %w", err)
		}
		return v, nil
	}
	v, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("schema gate: %w", err)
	}
	return v, nil
}

// buildLocker creates the per-document evolution locker based on config.
func buildLocker(cfg config.LockConfig, logger *zap.Logger) (evolution.Locker, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Info("using in-memory evolution locker")
		return evolution.NewMemoryLocker(), nil, nil
	case "redis":
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			return nil, nil, fmt.Errorf("evolution locker: env %s holds no address", cfg.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Error("redis client close error", zap.Error(err))
			}
		}
		return evolution.NewRedisLocker(client), closer, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock driver: %q", cfg.Driver)
	}
}

// buildCapabilityResolver creates the resolver from the configured
// policy file, falling back to the built-in role table.
func buildCapabilityResolver(cfg config.CapabilityConfig, metrics *observability.Metrics) (model.CapabilityResolver, error) {
	var policy *capability.StaticPolicy
	if cfg.StaticPolicyFile != "" {
		p, err := capability.NewStaticPolicy(cfg.StaticPolicyFile)
		if err != nil {
			return nil, fmt.Errorf("static policy: %w", err)
		}
		policy = p
	} else {
		policy = capability.NewDefaultPolicy()
	}
	return capability.NewResolver(policy, cfg.Cache.TTL, metrics), nil
}

// driverName normalizes an empty driver to its default for logging.
func driverName(driver string) string {
	if driver == "" {
		return "memory"
	}
	return driver
}

// runRulePackReloader periodically rescans the rule pack directories
// and swaps updated packs into the engine.
func runRulePackReloader(ctx context.Context, engine *validation.Engine, loader *rulepack.Loader, validator *rulepack.Validator, cfg config.RulePacksConfig, metrics *observability.Metrics, logger *zap.Logger) {
	ticker := time.NewTicker(rulePackReloadInterval)
	defer ticker.Stop()

	checksums := make(map[string]string)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dirs := existingDirs(cfg.Directories)
			packs, err := loader.LoadAll(dirs)
			if err != nil {
				metrics.RecordRulePackReload("failure")
				logger.Error("rule pack rescan failed", zap.Error(err))
				continue
			}

			changed := 0
			failed := false
			for _, pack := range packs {
				if checksums[pack.SourceFile] == pack.Checksum {
					continue
				}
				if verrs := validator.Validate([]rulepack.RulePack{pack}); len(verrs) > 0 {
					failed = true
					for _, ve := range verrs {
						logger.Error("rule pack validation error",
							zap.String("file", pack.SourceFile), zap.String("error", ve.Error()))
					}
					continue
				}
				engine.AddRules(pack.Category, pack.Rules)
				checksums[pack.SourceFile] = pack.Checksum
				changed++
				logger.Info("rule pack reloaded",
					zap.String("category", pack.Category),
					zap.String("file", pack.SourceFile),
					zap.String("checksum", pack.Checksum),
				)
			}

			switch {
			case failed:
				metrics.RecordRulePackReload("failure")
			case changed > 0:
				metrics.RecordRulePackReload("success")
				metrics.SetRulesLoaded(float64(countRules(engine)))
			}
		}
	}
}
