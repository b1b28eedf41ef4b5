// Package app wires configuration into a ready analysis.Service. Both the HTTP
// server and the offline CLI start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bryanwahyu/automaton-code/internal/application"
	"github.com/bryanwahyu/automaton-code/internal/application/analysis"
	"github.com/bryanwahyu/automaton-code/internal/application/normalize"
	"github.com/bryanwahyu/automaton-code/internal/config"
	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/automaton-code/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/automaton-code/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine/lint"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine/sast"
	"github.com/bryanwahyu/automaton-code/internal/infra/engine/secrets"
	"github.com/bryanwahyu/automaton-code/internal/infra/executor"
	"github.com/bryanwahyu/automaton-code/internal/infra/storage"
)

// NewService builds the registry and catalog once. Overlay sources that are
// configured must be reachable; the service never starts half-configured.
func NewService(ctx context.Context, cfg *config.Config, log *slog.Logger, obs analysis.Observer) (*analysis.Service, error) {
	overlay, err := LoadOverlay(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	adapters, err := Adapters(cfg, overlay, log)
	if err != nil {
		return nil, err
	}
	reg, err := analysis.NewRegistry(adapters...)
	if err != nil {
		return nil, err
	}
	for _, d := range reg.Descriptors() {
		log.Debug("analyzer registered", "analyzer", d.Name, "language", d.Language, "kind", d.Kind)
	}
	log.Info("analyzers ready", "count", reg.Len())

	return &analysis.Service{
		Registry:   reg,
		Normalizer: normalize.New(normalize.NewCatalog(overlay.Remediations...), log),
		Timeout:    cfg.Analysis.Timeout,
		Workers:    cfg.Analysis.Workers,
		Log:        log,
		Observer:   obs,
		Clock:      application.SystemClock{},
	}, nil
}

// Adapters returns every analyzer the configuration enables, built-ins first.
func Adapters(cfg *config.Config, overlay *Overlay, log *slog.Logger) ([]domain.Adapter, error) {
	if overlay == nil {
		overlay = &Overlay{}
	}
	scanners, err := sast.Adapters(overlay.SAST...)
	if err != nil {
		return nil, fmt.Errorf("sast rules: %w", err)
	}
	matchers, err := secrets.Matchers(overlay.Secrets...)
	if err != nil {
		return nil, fmt.Errorf("secret rules: %w", err)
	}

	var out []domain.Adapter
	out = appendAdapters(out, scanners)
	out = appendAdapters(out, matchers)
	out = appendAdapters(out, lint.Linters(cfg.Analysis.Lint))

	if cfg.Analysis.ExternalTools {
		tools := cfg.Analysis.Tools
		if len(tools) == 0 {
			tools = executor.DefaultTools()
		}
		out = appendAdapters(out, executor.Available(tools, log))
	}

	if cfg.LLM.Enabled {
		langs, err := llmLanguages(cfg.LLM.Languages)
		if err != nil {
			return nil, err
		}
		client := openai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		out = appendAdapters(out, client.Reviewers(langs...))
	}
	return out, nil
}

func appendAdapters[T domain.Adapter](dst []domain.Adapter, src []T) []domain.Adapter {
	for _, a := range src {
		dst = append(dst, a)
	}
	return dst
}

func llmLanguages(names []string) ([]domain.LanguageTag, error) {
	if len(names) == 0 {
		return domain.Languages, nil
	}
	out := make([]domain.LanguageTag, 0, len(names))
	for _, n := range names {
		tag, ok := domain.ParseTag(n)
		if !ok || tag == domain.LangUnknown {
			return nil, fmt.Errorf("llm.languages: unsupported language %q", n)
		}
		out = append(out, tag)
	}
	return out, nil
}

// LoadOverlay reads the local overlay directory, the bucket and the SQL
// catalog, in that order. Later sources win for remediation text.
func LoadOverlay(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Overlay, error) {
	overlay := &Overlay{}

	if dir := cfg.Analysis.OverlayDir; dir != "" {
		if err := overlay.Load(ctx, FSSource{FS: os.DirFS(dir)}); err != nil {
			return nil, fmt.Errorf("overlay dir %s: %w", dir, err)
		}
		log.Info("overlay loaded", "source", "dir", "path", dir)
	}

	if cfg.Minio.Enabled {
		store, err := storage.New(ctx, cfg.Minio.Options)
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		if err := overlay.Load(ctx, store); err != nil {
			return nil, fmt.Errorf("minio overlay: %w", err)
		}
		log.Info("overlay loaded", "source", "minio", "bucket", cfg.Minio.Bucket)
	}

	if dsn := cfg.DatabaseDSN(); cfg.Database.Driver != "" && dsn != "" {
		sol, err := loadRemediations(ctx, cfg.Database.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("%s remediations: %w", cfg.Database.Driver, err)
		}
		overlay.Remediations = append(overlay.Remediations, sol)
		log.Info("overlay loaded", "source", cfg.Database.Driver, "remediations", len(sol))
	}

	log.Info("overlay summary",
		"sast_rules", len(overlay.SAST),
		"secret_rules", len(overlay.Secrets),
		"remediation_sets", len(overlay.Remediations))
	return overlay, nil
}

// loadRemediations reads the catalog once and closes the connection.
func loadRemediations(ctx context.Context, driver, dsn string) (map[string]string, error) {
	var (
		conn *sql.DB
		repo domain.Remediations
		err  error
	)
	switch strings.ToLower(driver) {
	case "mysql":
		conn, err = mysqlp.Connect(ctx, dsn)
		if err == nil {
			repo = mysqlp.NewRemediationRepository(conn)
		}
	case "postgres":
		conn, err = postgresp.Connect(ctx, dsn)
		if err == nil {
			repo = postgresp.NewRemediationRepository(conn)
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return repo.LoadRemediations(ctx)
}
