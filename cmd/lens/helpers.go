package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/ledgerlens/internal/categorize"
	"github.com/Veraticus/ledgerlens/internal/config"
	"github.com/Veraticus/ledgerlens/internal/csvimport"
	"github.com/Veraticus/ledgerlens/internal/engine"
	"github.com/Veraticus/ledgerlens/internal/matcher"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/Veraticus/ledgerlens/internal/normalize"
	"github.com/Veraticus/ledgerlens/internal/ofx"
	"github.com/Veraticus/ledgerlens/internal/recurring"
	"github.com/Veraticus/ledgerlens/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultTenant = "default"

// workspaceTenant is one entry of a multi-tenant workspace file.
type workspaceTenant struct {
	Owner     model.OwnerContext `yaml:"owner"`
	TenantID  string             `yaml:"tenant_id"`
	AccountID string             `yaml:"account_id"`
	Files     []string           `yaml:"files"`
}

type workspace struct {
	Tenants []workspaceTenant `yaml:"tenants"`
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// buildEngine wires the configured rule table, matcher and detector.
func buildEngine(settings *config.Settings) (*engine.Engine, error) {
	opts := []engine.Option{
		engine.WithMatcher(matcher.New(settings.Matching)),
		engine.WithDetector(recurring.NewDetector(recurring.WithSettings(settings.Recurring))),
		engine.WithWorkers(settings.Workers),
	}

	if settings.RulesPath != "" {
		rules, err := categorize.LoadRulesFile(settings.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules from %s: %w", settings.RulesPath, err)
		}
		opts = append(opts, engine.WithCategorizer(categorize.NewCategorizer(rules)))
	}

	return engine.New(opts...), nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// decodeYAMLFile strictly decodes path into out.
func decodeYAMLFile(path string, out any) error {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// loadOwner reads an owner context file. An empty path yields a private
// person owned by the tenant.
func loadOwner(path, tenantID string) (model.OwnerContext, error) {
	owner := model.OwnerContext{}
	if path != "" {
		if err := decodeYAMLFile(path, &owner); err != nil {
			return model.OwnerContext{}, err
		}
	}
	return completeOwner(owner, tenantID)
}

func completeOwner(owner model.OwnerContext, tenantID string) (model.OwnerContext, error) {
	if owner.OwnerID == "" {
		owner.OwnerID = tenantID
	}
	if owner.OwnerType == "" {
		owner.OwnerType = model.OwnerPerson
	}
	if _, err := model.ParseOwnerType(string(owner.OwnerType)); err != nil {
		return model.OwnerContext{}, err
	}
	return owner, nil
}

// loadWorkspace reads a workspace file. Relative file patterns resolve
// against the workspace file's directory.
func loadWorkspace(path string) (*workspace, error) {
	var ws workspace
	if err := decodeYAMLFile(path, &ws); err != nil {
		return nil, err
	}
	if len(ws.Tenants) == 0 {
		return nil, fmt.Errorf("workspace %s lists no tenants", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(ws.Tenants))
	for i := range ws.Tenants {
		t := &ws.Tenants[i]
		if t.TenantID == "" {
			return nil, fmt.Errorf("workspace tenant %d has no tenant_id", i+1)
		}
		if seen[t.TenantID] {
			return nil, fmt.Errorf("workspace lists tenant %s twice", t.TenantID)
		}
		seen[t.TenantID] = true

		owner, err := completeOwner(t.Owner, t.TenantID)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", t.TenantID, err)
		}
		t.Owner = owner

		for j, f := range t.Files {
			if !filepath.IsAbs(f) {
				t.Files[j] = filepath.Join(base, f)
			}
		}
	}
	return &ws, nil
}

// expandPatterns resolves globs; literal paths that exist are kept as-is.
func expandPatterns(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(config.ExpandPath(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

// readRows parses every file into manual rows. Unreadable files and
// skipped CSV lines are returned as warnings; only cancellation aborts.
func readRows(ctx context.Context, files []string, tenantID, accountID string, progress io.Writer) ([]normalize.ManualRow, []error, error) {
	if len(files) == 0 {
		return nil, nil, ctx.Err()
	}

	bar := newProgressBar(len(files), "Reading statements...", progress)
	defer func() { _ = bar.Finish() }()

	parser := ofx.NewParser()
	var rows []normalize.ManualRow
	var warnings []error

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		fileRows, skipped, err := readFile(ctx, parser, path, tenantID, accountID)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		if err != nil {
			slog.Error("Failed to read statement", "file", path, "error", err)
			warnings = append(warnings, fmt.Errorf("%s: %w", filepath.Base(path), err))
		} else {
			slog.Debug("Read statement", "file", filepath.Base(path), "rows", len(fileRows), "skipped", len(skipped))
			rows = append(rows, fileRows...)
			for _, s := range skipped {
				warnings = append(warnings, fmt.Errorf("%s: %w", filepath.Base(path), s))
			}
		}

		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	return rows, warnings, nil
}

func readFile(ctx context.Context, parser *ofx.Parser, path, tenantID, accountID string) ([]normalize.ManualRow, []error, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		rows, err := parser.ParseFile(ctx, f, tenantID)
		return rows, nil, err
	case ".csv", ".txt":
		if accountID == "" {
			accountID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		res, err := csvimport.Parse(ctx, f, csvimport.Options{TenantID: tenantID, AccountID: accountID})
		if err != nil {
			return nil, nil, err
		}
		return res.Rows, res.Skipped, nil
	}
	return nil, nil, fmt.Errorf("unsupported statement format %q", filepath.Ext(path))
}

func newProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
