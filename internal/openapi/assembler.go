package openapi

import (
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
)

// DefaultMediaType is used for every request and response body unless the
// configuration overrides it.
const DefaultMediaType = "application/json"

// Config controls document assembly.
type Config struct {
	Info    Info
	Servers []Server

	// MediaType keys every content map. Empty means DefaultMediaType.
	MediaType string

	// Parallelism bounds how many resources are built at once. Zero or less
	// uses GOMAXPROCS.
	Parallelism int

	// RelatedEndpoints adds GET /{type}/{id}/{field} and, for to-many
	// relationships, POST and DELETE on the relationship path.
	RelatedEndpoints bool

	// QueryParameters adds include, fields, sort, filter and page parameters.
	QueryParameters bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Info:      Info{Title: "JSON:API", Version: "1.0.0"},
		MediaType: DefaultMediaType,
	}
}

// Assembler turns a metadata graph into a Document.
type Assembler struct {
	config Config
	logger *zap.Logger
}

// NewAssembler creates an assembler. A nil logger disables logging.
func NewAssembler(config Config, logger *zap.Logger) *Assembler {
	if config.MediaType == "" {
		config.MediaType = DefaultMediaType
	}
	if config.Info.Title == "" {
		config.Info.Title = DefaultConfig().Info.Title
	}
	if config.Info.Version == "" {
		config.Info.Version = DefaultConfig().Info.Version
	}
	if config.Parallelism <= 0 {
		config.Parallelism = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{config: config, logger: logger}
}

// Assemble builds the document for graph with the default configuration.
func Assemble(graph *metadata.Graph) (*Document, error) {
	return NewAssembler(DefaultConfig(), nil).Assemble(graph)
}

// Assemble validates graph, builds every enabled operation and merges them
// into one document. Output depends only on the graph and the configuration:
// resources are merged in declaration order whatever order they finish in.
func (a *Assembler) Assemble(graph *metadata.Graph) (*Document, error) {
	start := time.Now()

	if err := Validate(graph); err != nil {
		return nil, err
	}

	registry := NewSchemaRegistry()
	results := make([][]*OperationDescriptor, graph.Len())
	errs := make([]error, graph.Len())

	var g errgroup.Group
	g.SetLimit(a.config.Parallelism)
	for i := 0; i < graph.Len(); i++ {
		g.Go(func() error {
			results[i], errs[i] = a.buildResource(graph, registry, graph.At(i))
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	paths, ops, err := a.merge(results)
	if err != nil {
		return nil, err
	}

	// Errors is shared by every error response; make sure it exists even
	// when no operation was emitted.
	registry.Errors()

	doc := &Document{
		OpenAPI:    Version,
		Info:       a.config.Info,
		Servers:    a.config.Servers,
		Tags:       tags(graph, ops),
		Paths:      paths,
		Components: Components{Schemas: registry.Snapshot()},
		operations: ops,
	}
	if err := verifyReferences(doc); err != nil {
		return nil, err
	}

	a.logger.Info("openapi document assembled",
		zap.Int("resources", graph.Len()),
		zap.Int("paths", paths.Len()),
		zap.Int("operations", len(ops)),
		zap.Int("components", len(doc.Components.Schemas)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return doc, nil
}

// buildResource builds the primary operations of res followed by the
// operations of each relationship field, in declaration order.
func (a *Assembler) buildResource(graph *metadata.Graph, registry *SchemaRegistry, res *metadata.ResourceDescriptor) ([]*OperationDescriptor, error) {
	var ops []*OperationDescriptor

	add := func(kind OperationKind, t Target) error {
		builder, err := NewOperationBuilder(kind, t)
		if err != nil {
			return err
		}
		if !builder.Enabled() {
			a.logger.Debug("operation disabled",
				zap.String("resource", res.Type),
				zap.String("kind", kind.String()),
				zap.String("path", builder.Path()),
			)
			return nil
		}
		op, err := builder.Build()
		if err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	}

	base := Target{
		Registry:        registry,
		Resource:        res,
		MediaType:       a.config.MediaType,
		QueryParameters: a.config.QueryParameters,
	}
	for _, kind := range PrimaryKinds {
		if err := add(kind, base); err != nil {
			return nil, err
		}
	}

	kinds := RelationshipKinds
	if a.config.RelatedEndpoints {
		kinds = append(append([]OperationKind{}, RelationshipKinds...), RelatedKinds...)
	}
	for _, field := range metadata.Relationships(res) {
		related, ok := graph.Resource(field.Target)
		if !ok {
			return nil, malformed(CodeUnknownTarget, res.Type, field.Name, "relationship targets unknown resource type %q", field.Target)
		}
		t := base
		t.Field = &field
		t.Related = related
		for _, kind := range kinds {
			if err := add(kind, t); err != nil {
				return nil, err
			}
		}
	}

	a.logger.Debug("resource built", zap.String("resource", res.Type), zap.Int("operations", len(ops)))
	return ops, nil
}

// merge inserts the operations into a fresh path map. Two operations on the
// same path and method are only accepted when they describe the same
// operation; anything else is a DuplicatePathConflict. Operation ids need no
// check of their own: each (kind, owner, field) has exactly one route.
func (a *Assembler) merge(results [][]*OperationDescriptor) (*Paths, []*OperationDescriptor, error) {
	paths := NewPaths()
	byRoute := make(map[string]*OperationDescriptor)
	var merged []*OperationDescriptor

	for _, ops := range results {
		for _, op := range ops {
			route := op.Method + " " + op.Path
			if existing, ok := byRoute[route]; ok {
				if sameOperation(existing, op) {
					continue
				}
				return nil, nil, pathConflict(op.Path, op.Method, existing, op)
			}

			if err := paths.item(op.Path).set(op.Method, op.Operation); err != nil {
				return nil, nil, err
			}
			byRoute[route] = op
			merged = append(merged, op)
		}
	}
	return paths, merged, nil
}

func sameOperation(a, b *OperationDescriptor) bool {
	return a.Kind == b.Kind && a.Owner == b.Owner && a.Field == b.Field && a.Related == b.Related
}

// tags returns one tag per resource type owning at least one operation.
func tags(graph *metadata.Graph, ops []*OperationDescriptor) []Tag {
	owners := make(map[string]bool, len(ops))
	for _, op := range ops {
		owners[op.Owner] = true
	}

	var out []Tag
	for i := 0; i < graph.Len(); i++ {
		res := graph.At(i)
		if owners[res.Type] {
			out = append(out, Tag{Name: res.Type, Description: res.Description})
		}
	}
	return out
}
