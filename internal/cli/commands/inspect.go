package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/jsonapi-oas/internal/cli/ui"
	"github.com/conduit-lang/jsonapi-oas/internal/metadata"
	"github.com/conduit-lang/jsonapi-oas/internal/openapi"
)

var inspectBindings = []flagBinding{
	{flag: "metadata", key: "metadata", path: true},
	{flag: "related", key: "generator.related_endpoints"},
	{flag: "query-params", key: "generator.query_parameters"},
}

// operationInfo is the JSON form of one inspected operation
type operationInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	OperationID string `json:"operationId"`
	Resource    string `json:"resource"`
	Field       string `json:"field,omitempty"`
	Description string `json:"description"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the operations the metadata produces",
		Long: `List every enabled operation in the generated document.

Runs the full generation pipeline without writing anything, then prints one
row per operation with its method, path, kind and description, the
relationships pointing at each resource, and a summary of the document.

--only narrows the listing to resource types matching a pattern. "*" matches
any run of characters: task, task*, *_item and *user* are all valid.`,
		Example: `  # Show operations as a table
  jsonapi-oas inspect

  # Include related endpoints
  jsonapi-oas inspect --related

  # Only the operations owned by task resources
  jsonapi-oas inspect --only 'task*'

  # Machine-readable output
  jsonapi-oas inspect --format json`,
		Args: cobra.NoArgs,
		RunE: runInspect,
	}

	cmd.Flags().StringP("metadata", "m", "", "Metadata file (default: resources.json)")
	cmd.Flags().String("format", "table", "Output format: table or json")
	cmd.Flags().String("only", "", "Only list resource types matching this pattern")
	cmd.Flags().Bool("related", false, "Include related resource and to-many add/remove endpoints")
	cmd.Flags().Bool("query-params", false, "Document JSON:API query parameters on collection reads")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q, must be table or json", format)
	}

	cfg, err := loadConfig(cmd, inspectBindings)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	graph, err := loadGraph(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	doc, err := assembleDocument(cfg, graph, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	only, _ := cmd.Flags().GetString("only")
	selected, err := selectTypes(graph, only, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if format == "json" {
		return writeOperationsJSON(cmd.OutOrStdout(), doc, selected)
	}
	writeOperationsTable(cmd.OutOrStdout(), doc, graph, selected)
	return nil
}

// selectTypes returns the resource types matching pattern, in declaration
// order. An empty pattern selects every type.
func selectTypes(graph *metadata.Graph, pattern string, errOut io.Writer) ([]string, error) {
	if pattern == "" {
		return graph.Types(), nil
	}

	types := graph.MatchTypes(pattern)
	if len(types) == 0 {
		err := fmt.Errorf("no resource type matches %q", pattern)
		ui.Write(errOut, ui.Message{
			Level:        ui.LevelError,
			Context:      "inspect error",
			Problem:      err.Error(),
			Suggestions:  ui.FindSimilar(pattern, graph.Types(), nil),
			HelpCommands: []string{"List resources: jsonapi-oas inspect"},
			NoColor:      noColor,
		})
		return nil, reportedError{err}
	}
	return types, nil
}

// selectedOperations keeps the operations owned by one of types.
func selectedOperations(doc *openapi.Document, types []string) []*openapi.OperationDescriptor {
	owners := make(map[string]bool, len(types))
	for _, t := range types {
		owners[t] = true
	}

	var ops []*openapi.OperationDescriptor
	for _, op := range doc.Operations() {
		if owners[op.Owner] {
			ops = append(ops, op)
		}
	}
	return ops
}

func writeOperationsJSON(w io.Writer, doc *openapi.Document, types []string) error {
	ops := selectedOperations(doc, types)
	infos := make([]operationInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, operationInfo{
			Method:      op.Method,
			Path:        op.Path,
			Kind:        op.Kind.String(),
			OperationID: op.OperationID(),
			Resource:    op.Owner,
			Field:       op.Field,
			Description: op.Description,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}

func writeOperationsTable(w io.Writer, doc *openapi.Document, graph *metadata.Graph, types []string) {
	ui.Header(w, doc.Info.Title+" "+doc.Info.Version, noColor)

	ops := selectedOperations(doc, types)
	table := ui.NewTable(w, []string{"METHOD", "PATH", "KIND", "DESCRIPTION"}, noColor)
	for _, op := range ops {
		table.AddRow(op.Method, op.Path, op.Kind.String(), op.Description)
	}
	table.Render()
	fmt.Fprintln(w)

	refs := ui.NewTable(w, []string{"RESOURCE", "REFERENCED BY", "CARDINALITY"}, noColor)
	for _, t := range types {
		for _, ref := range graph.ReferencesTo(t) {
			refs.AddRow(t, ref.SourceResource+"."+ref.Field.Name, string(ref.Field.Cardinality))
		}
	}
	if refs.Len() > 0 {
		refs.Render()
		fmt.Fprintln(w)
	}

	summary := ui.NewKeyValueTable(w, noColor)
	summary.AddRow("Resources", strconv.Itoa(len(doc.Tags)))
	summary.AddRow("Paths", strconv.Itoa(doc.Paths.Len()))
	summary.AddRow("Operations", strconv.Itoa(len(doc.Operations())))
	summary.AddRow("Schemas", strconv.Itoa(len(doc.Components.Schemas)))
	if len(ops) != len(doc.Operations()) {
		summary.AddRow("Listed", fmt.Sprintf("%d operations on %d resources", len(ops), len(types)))
	}
	summary.Render()
}
