// Package analyzer resolves a declaration set into run metadata: it locates
// declarations, resolves type expressions into descriptors, extracts
// validation constraints and assembles controller and operation metadata.
package analyzer

import (
	"errors"
	"io"
	"log/slog"

	"github.com/HoldYourWaffle2/tsoa/internal/declaration"
	"github.com/HoldYourWaffle2/tsoa/internal/diagnostic"
	"github.com/HoldYourWaffle2/tsoa/internal/metadata"
)

// hiddenTag excludes a controller or operation from the output.
const hiddenTag = "hidden"

// Options configures one generation run.
type Options struct {
	// ExtractEnumsAsReference renders enumerations as named references
	// instead of inline literal lists.
	ExtractEnumsAsReference bool

	// ControllerInclude and ControllerExclude filter controllers by the path
	// of the source they are declared in. An empty include list keeps all.
	ControllerInclude []string
	ControllerExclude []string

	Logger      *slog.Logger
	Diagnostics *diagnostic.Collector
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{ExtractEnumsAsReference: true}
}

// Generator runs the resolution of a declaration set. It owns the registry
// of the run; Generate resets it first, so a Generator may be reused for
// consecutive runs but never for concurrent ones.
type Generator struct {
	set      *declaration.Set
	opts     Options
	registry *metadata.Registry
	resolver *TypeResolver
	logger   *slog.Logger
}

// NewGenerator creates a generator over a linked declaration set.
func NewGenerator(set *declaration.Set, opts Options) *Generator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := metadata.NewRegistry()
	return &Generator{
		set:      set,
		opts:     opts,
		registry: registry,
		resolver: NewTypeResolver(NewLocator(set), registry, opts.Diagnostics, opts.Logger),
		logger:   opts.Logger,
	}
}

// Generate resolves every selected controller. On a fatal error nothing is
// returned; a run either completes or produces no output. The fatal error is
// also recorded in the run's diagnostics.
func (g *Generator) Generate() (*metadata.Spec, error) {
	g.registry.Reset()

	spec := &metadata.Spec{Registry: g.registry}
	for _, c := range g.set.Controllers {
		if !MatchesGlob(c.Source, g.opts.ControllerInclude, g.opts.ControllerExclude) {
			g.logger.Debug("skipping controller", "name", c.Name, "source", c.Source)
			continue
		}
		if c.Annotations.HasTag(hiddenTag) {
			g.logger.Debug("skipping hidden controller", "name", c.Name)
			continue
		}
		ctrl, err := g.resolveController(c)
		if err != nil {
			g.fail(err)
			return nil, err
		}
		spec.Controllers = append(spec.Controllers, ctrl)
	}

	pending := g.registry.Pending()
	g.registry.Finish()

	g.logger.Info("generated metadata",
		"controllers", len(spec.Controllers),
		"references", g.registry.Len(),
		"patched", pending,
	)
	return spec, nil
}

func (g *Generator) fail(err error) {
	var gerr *GenerateError
	if !errors.As(err, &gerr) {
		return
	}
	g.opts.Diagnostics.Error(gerr.Category(), gerr.TypeName, err.Error())
}
