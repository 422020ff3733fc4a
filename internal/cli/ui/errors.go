package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/jsonapi-oas/internal/openapi"
)

// Level is the severity of a rendered message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a multi-line diagnostic block
type Message struct {
	Level        Level
	Context      string
	Problem      string
	Detail       string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// Format renders a message:
//
//	✗ METADATA ERROR: GEN102
//	   task.project: relationship targets unknown resource type "projet"
//
//	   Did you mean: project?
//
//	   → List resources: jsonapi-oas inspect
func Format(m Message) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
	}
	hint := color.New(color.FgYellow)
	help := color.New(color.FgCyan)
	if m.NoColor {
		for _, c := range []*color.Color{header, body, hint, help} {
			c.DisableColor()
		}
	}

	if m.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	if m.Detail != "" {
		body.Fprintf(&b, "   %s\n", m.Detail)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range m.HelpCommands {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// Write renders m to w
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// GenerationError renders err. When err wraps an *openapi.GenerationError the
// code, location and kind-specific help are shown; knownTypes feeds the
// "Did you mean" line for unknown relationship targets.
func GenerationError(err error, knownTypes []string, noColor bool) string {
	var genErr *openapi.GenerationError
	if !errors.As(err, &genErr) {
		return Format(Message{
			Level:        LevelError,
			Context:      "generation failed",
			Problem:      err.Error(),
			HelpCommands: []string{"Get help: jsonapi-oas generate --help"},
			NoColor:      noColor,
		})
	}

	location := genErr.Resource
	if genErr.Field != "" {
		location += "." + genErr.Field
	}
	detail := genErr.Message
	if location != "" {
		detail = location + ": " + detail
	}

	m := Message{
		Level:   LevelError,
		Context: contextFor(genErr.Kind),
		Problem: genErr.Code,
		Detail:  detail,
		NoColor: noColor,
	}

	switch genErr.Code {
	case openapi.CodeUnknownTarget:
		if target := quoted(genErr.Message); target != "" {
			m.Suggestions = FindSimilar(target, knownTypes, nil)
		}
		m.HelpCommands = []string{"List resources: jsonapi-oas inspect"}
	case openapi.CodeUnsupportedFieldType:
		m.HelpCommands = []string{"Supported types: string, integer, number, boolean, date, date-time, uuid, email, uri, object, []<type>"}
	case openapi.CodeDuplicatePathConflict:
		m.HelpCommands = []string{"List operations: jsonapi-oas inspect"}
	default:
		m.HelpCommands = []string{"Get help: jsonapi-oas generate --help"}
	}

	return Format(m)
}

// ConfigError renders a configuration problem
func ConfigError(err error, noColor bool) string {
	return Format(Message{
		Level:   LevelError,
		Context: "configuration error",
		Problem: err.Error(),
		HelpCommands: []string{
			"View config: cat jsonapi-oas.yaml",
			"Get help: jsonapi-oas --help",
		},
		NoColor: noColor,
	})
}

// Warning renders a warning
func Warning(message string, noColor bool) string {
	return Format(Message{Level: LevelWarning, Problem: message, NoColor: noColor})
}

func contextFor(kind openapi.ErrorKind) string {
	switch kind {
	case openapi.KindMalformedMetadata:
		return "metadata error"
	case openapi.KindUnsupportedFieldType:
		return "unsupported field type"
	case openapi.KindDuplicatePathConflict:
		return "path conflict"
	case openapi.KindDanglingReference:
		return "internal error"
	}
	return "generation failed"
}

// quoted returns the first double-quoted string in s.
func quoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}
