package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/HoldYourWaffle2/tsoa/internal/buildcache"
	"github.com/HoldYourWaffle2/tsoa/internal/codegen"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
	"github.com/HoldYourWaffle2/tsoa/internal/openapi"
	"github.com/HoldYourWaffle2/tsoa/internal/watcher"
)

// metadataDump is the output of "tsoa metadata".
type metadataDump struct {
	Controllers []metadata.Controller          `json:"controllers"`
	References  map[string]*metadata.Reference `json:"references"`
}

// routesDump is the output of "tsoa routes".
type routesDump struct {
	Models     *codegen.OrderedMap[codegen.ModelSchema]   `json:"models"`
	Operations []codegen.Operation                        `json:"operations"`
	Parameters *codegen.OrderedMap[*codegen.ParameterMap] `json:"parameters"`
}

func newMetadataCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Dump resolved controllers and reference types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			spec, err := p.generate()
			if err != nil {
				return err
			}
			return writeOutput(opts.stdout, out, dumpMetadata(spec))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Write materialized models and operations with flattened parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			doc, err := p.materialize()
			if err != nil {
				return err
			}
			routes, err := dumpRoutes(doc)
			if err != nil {
				return err
			}
			return writeOutput(opts.stdout, out, routes)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func newJSONSchemaCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "jsonschema",
		Short: "Export the materialized models as JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			doc, err := p.materialize()
			if err != nil {
				return err
			}
			schema, err := openapi.ExportJSONSchema(doc)
			if err != nil {
				return err
			}
			return writeOutput(opts.stdout, out, schema)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

// stopSignals end "generate --watch".
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var force, watch bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write every output named in the config, skipping unchanged inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			if !watch {
				return p.generateAll(force)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), stopSignals...)
			defer stop()
			return opts.watch(ctx, p, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the build cache")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate when the config or declaration set changes")
	return cmd
}

// watch generates once and again on every change of the config file or the
// declaration set. Failed runs are logged and the watch continues.
func (o *rootOptions) watch(ctx context.Context, p *pipeline, force bool) error {
	if err := p.generateAll(force); err != nil {
		p.logger.Error("generation failed", "err", err)
	}

	var mu sync.Mutex
	w := watcher.New([]string{o.configPath, p.cfg.EntryFile}, 100*time.Millisecond, func(events []watcher.Event) {
		mu.Lock()
		defer mu.Unlock()
		p.logger.Info("inputs changed", "files", len(events))
		next, err := o.pipeline()
		if err != nil {
			p.logger.Error("reloading config", "err", err)
			return
		}
		if err := next.generateAll(false); err != nil {
			next.logger.Error("generation failed", "err", err)
		}
	})
	p.logger.Info("watching for changes", "entryFile", p.cfg.EntryFile)
	if err := w.Watch(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *pipeline) generateAll(force bool) error {
	outputs := p.cfg.Output
	var written []string
	for _, path := range []string{outputs.Models, outputs.Routes, outputs.JSONSchema} {
		if path != "" {
			written = append(written, path)
		}
	}
	if len(written) == 0 {
		return fmt.Errorf("no outputs configured: set output.models, output.routes or output.jsonSchema")
	}

	cachePath := buildcache.CachePath(p.cfg.EntryFile)
	hash := buildcache.HashInputs(p.opts.configPath, p.cfg.EntryFile)
	if !force && buildcache.Load(cachePath).IsValid(hash) {
		p.logger.Info("outputs up to date", "cache", cachePath)
		return nil
	}
	buildcache.Delete(cachePath)

	spec, err := p.generate()
	if err != nil {
		return err
	}
	doc, err := codegen.Materialize(spec, p.cfg.CodegenOptions())
	if err != nil {
		return err
	}

	if outputs.Models != "" {
		if err := writeOutput(nil, outputs.Models, dumpMetadata(spec)); err != nil {
			return err
		}
	}
	if outputs.Routes != "" {
		routes, err := dumpRoutes(doc)
		if err != nil {
			return err
		}
		if err := writeOutput(nil, outputs.Routes, routes); err != nil {
			return err
		}
	}
	if outputs.JSONSchema != "" {
		schema, err := openapi.ExportJSONSchema(doc)
		if err != nil {
			return err
		}
		if err := writeOutput(nil, outputs.JSONSchema, schema); err != nil {
			return err
		}
	}

	abs := make([]string, 0, len(written))
	for _, path := range written {
		if a, err := filepath.Abs(path); err == nil {
			path = a
		}
		abs = append(abs, path)
	}
	if err := buildcache.Save(cachePath, buildcache.New(hash, abs)); err != nil {
		p.logger.Warn("could not save build cache", "path", cachePath, "err", err)
	}
	p.logger.Info("outputs written", "count", len(written))
	return nil
}

func dumpMetadata(spec *metadata.Spec) metadataDump {
	return metadataDump{
		Controllers: spec.Controllers,
		References:  spec.Registry.References(),
	}
}

func dumpRoutes(doc *codegen.Document) (routesDump, error) {
	params, err := codegen.FlattenOperations(doc)
	if err != nil {
		return routesDump{}, err
	}
	return routesDump{
		Models:     doc.Models,
		Operations: doc.Operations,
		Parameters: params,
	}, nil
}
