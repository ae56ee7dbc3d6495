package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/HoldYourWaffle2/tsoa/internal/analyzer"
	"github.com/HoldYourWaffle2/tsoa/internal/codegen"
	"github.com/HoldYourWaffle2/tsoa/internal/config"
	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// pipeline is one configured generation run.
type pipeline struct {
	opts   *rootOptions
	cfg    *config.Config
	logger *slog.Logger
	diags  *diagnostic.Collector
}

func (o *rootOptions) pipeline() (*pipeline, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.configPath != "" {
		cfg.ResolvePaths(filepath.Dir(o.configPath))
	}
	if o.declarations != "" {
		cfg.EntryFile = o.declarations
	}

	p := &pipeline{
		opts:   o,
		cfg:    cfg,
		logger: o.logger(),
		diags:  diagnostic.NewCollector(o.strict, false),
	}

	origin := o.configPath
	if origin == "" {
		origin = "config"
	}
	cfg.ValidateDetailed().Report(p.diags, origin)
	if p.diags.HasErrors() {
		p.report()
		return nil, fmt.Errorf("invalid configuration: %s", p.diags.Summary())
	}
	return p, nil
}

// generate resolves the declaration set. Diagnostics are printed whether
// or not the run succeeds.
func (p *pipeline) generate() (*metadata.Spec, error) {
	set, err := declaration.Load(p.cfg.EntryFile)
	if err != nil {
		return nil, err
	}

	spec, err := analyzer.NewGenerator(set, p.cfg.AnalyzerOptions(p.logger, p.diags)).Generate()
	p.report()
	if p.diags.HasErrors() {
		return nil, fmt.Errorf("generation failed: %s", p.diags.Summary())
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// materialize runs generate and materializes the result.
func (p *pipeline) materialize() (*codegen.Document, error) {
	spec, err := p.generate()
	if err != nil {
		return nil, err
	}
	return codegen.Materialize(spec, p.cfg.CodegenOptions())
}

func (p *pipeline) report() {
	newPrinter(p.opts.stderr).diagnostics(p.diags.Diagnostics())
	p.logger.Info("diagnostics", "summary", p.diags.Summary())
}

// writeJSON writes v as indented JSON with sorted map keys.
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// writeOutput writes v to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, v any) error {
	if path == "" {
		return writeJSON(stdout, v)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return errors.Join(writeJSON(f, v), f.Close())
}
