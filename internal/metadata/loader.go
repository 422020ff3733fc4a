package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Format identifies a metadata source encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
	FormatCUE  Format = "cue"
)

// document is the on-disk shape shared by the JSON, YAML and CUE encodings.
type document struct {
	Resources []ResourceDescriptor `json:"resources" yaml:"resources"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported metadata file extension %q (want .json, .yaml, .yml, .hcl or .cue)", filepath.Ext(path))
	}
}

// Load reads a metadata file and builds its graph.
func Load(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	graph, err := decode(data, format, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return graph, nil
}

// Decode builds a graph from raw metadata in the given format.
func Decode(data []byte, format Format) (*Graph, error) {
	return decode(data, format, "metadata."+string(format))
}

func decode(data []byte, format Format, filename string) (*Graph, error) {
	var (
		resources []ResourceDescriptor
		err       error
	)

	switch format {
	case FormatJSON:
		resources, err = decodeJSON(data)
	case FormatYAML:
		resources, err = decodeYAML(data)
	case FormatHCL:
		resources, err = decodeHCL(data, filename)
	case FormatCUE:
		resources, err = decodeCUE(data, filename)
	default:
		return nil, fmt.Errorf("unknown metadata format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return NewGraph(resources), nil
}

func decodeJSON(data []byte) ([]ResourceDescriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return doc.Resources, nil
}

func decodeYAML(data []byte) ([]ResourceDescriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return doc.Resources, nil
}

func decodeCUE(data []byte, filename string) ([]ResourceDescriptor, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE metadata: %w", err)
	}

	var doc document
	if err := val.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode CUE metadata: %w", err)
	}
	return doc.Resources, nil
}

// HCL uses labelled blocks rather than the list shape of the other formats:
//
//	resource "task" {
//	  readable = true
//	  field "id" { id = true }
//	  field "project" {
//	    relationship = true
//	    target       = "project"
//	    cardinality  = "one"
//	  }
//	}
type hclDocument struct {
	Resources []hclResource `hcl:"resource,block"`
}

type hclResource struct {
	Type        string     `hcl:"type,label"`
	Description string     `hcl:"description,optional"`
	Readable    bool       `hcl:"readable,optional"`
	Creatable   bool       `hcl:"creatable,optional"`
	Writable    bool       `hcl:"writable,optional"`
	Deletable   bool       `hcl:"deletable,optional"`
	Fields      []hclField `hcl:"field,block"`
}

type hclField struct {
	Name         string   `hcl:"name,label"`
	Type         string   `hcl:"type,optional"`
	Description  string   `hcl:"description,optional"`
	ID           bool     `hcl:"id,optional"`
	Relationship bool     `hcl:"relationship,optional"`
	Target       string   `hcl:"target,optional"`
	Cardinality  string   `hcl:"cardinality,optional"`
	Readable     *bool    `hcl:"readable,optional"`
	Writable     *bool    `hcl:"writable,optional"`
	Required     bool     `hcl:"required,optional"`
	Nullable     bool     `hcl:"nullable,optional"`
	Enum         []string `hcl:"enum,optional"`
}

func decodeHCL(data []byte, filename string) ([]ResourceDescriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL metadata: %s", diags.Error())
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL metadata: %s", diags.Error())
	}

	resources := make([]ResourceDescriptor, 0, len(doc.Resources))
	for _, r := range doc.Resources {
		res := ResourceDescriptor{
			Type:        r.Type,
			Description: r.Description,
			Readable:    r.Readable,
			Creatable:   r.Creatable,
			Writable:    r.Writable,
			Deletable:   r.Deletable,
			Fields:      make([]FieldDescriptor, 0, len(r.Fields)),
		}
		for _, f := range r.Fields {
			res.Fields = append(res.Fields, FieldDescriptor{
				Name:         f.Name,
				Type:         f.Type,
				Description:  f.Description,
				ID:           f.ID,
				Relationship: f.Relationship,
				Target:       f.Target,
				Cardinality:  Cardinality(f.Cardinality),
				Readable:     f.Readable,
				Writable:     f.Writable,
				Required:     f.Required,
				Nullable:     f.Nullable,
				Enum:         f.Enum,
			})
		}
		resources = append(resources, res)
	}
	return resources, nil
}
