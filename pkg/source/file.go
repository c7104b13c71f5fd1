package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
)

// Format identifies a configuration file serialization.
type Format string

const (
	// FormatYAML is the indented structured-text form.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON form.
	FormatJSON Format = "json"
)

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml", "":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q: must be 'yaml' or 'json'", name)
	}
}

// DetectFormat determines the file format from the path extension, falling
// back to content sniffing: a document whose first byte is '{' or '[' is
// JSON, anything else is YAML.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// File reads one configuration file.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a file reader for the given path.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Path returns the file path the reader was created with.
func (f *File) Path() string { return f.path }

// Read loads and flattens the file. A missing file yields an empty mapping;
// an unreadable file is an io_error violation; malformed syntax is a
// parse_error violation carrying the line and column when the parser
// reports one. The read is abandoned when ctx expires.
func (f *File) Read(ctx context.Context) (confmap.Map, *conferr.List) {
	errs := &conferr.List{}

	if f.path == "" {
		return confmap.Map{}, errs
	}

	data, err := readBounded(ctx, f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Debug("configuration file absent", "path", f.path)
			return confmap.Map{}, errs
		}
		errs.Add(&conferr.Violation{
			Code:    conferr.CodeIO,
			Source:  "file",
			Message: fmt.Sprintf("cannot read %q: %v", f.path, err),
		})
		return nil, errs
	}

	return Parse(data, f.path)
}

// Parse parses configuration bytes into a flat mapping. YAML is a superset
// of JSON, so both formats go through the YAML parser, which preserves line
// and column positions for error reporting.
func Parse(data []byte, path string) (confmap.Map, *conferr.List) {
	errs := &conferr.List{}

	if len(bytes.TrimSpace(data)) == 0 {
		return confmap.Map{}, errs
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		errs.Add(parseViolation(err, path))
		return nil, errs
	}

	var doc map[string]any
	if err := node.Decode(&doc); err != nil {
		errs.Add(parseViolation(err, path))
		return nil, errs
	}

	flat, ferrs := confmap.Flatten(doc)
	errs.Merge(ferrs)
	if errs.Fatal(false) {
		return nil, errs
	}
	return flat, errs
}

// yamlLineRe extracts the position yaml.v3 embeds in its error strings.
var yamlLineRe = regexp.MustCompile(`line (\d+)(?:: | column (\d+))?`)

func parseViolation(err error, path string) *conferr.Violation {
	v := &conferr.Violation{
		Code:    conferr.CodeParse,
		Source:  "file",
		Message: fmt.Sprintf("malformed configuration in %q: %v", path, err),
	}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		v.Line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			v.Column, _ = strconv.Atoi(m[2])
		}
	}
	return v
}

// readBounded reads a file but gives up when the context expires, so a
// stuck filesystem cannot hang the resolution pipeline.
func readBounded(ctx context.Context, path string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{data, err}
	}()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("reading %q: %w", path, ctx.Err())
	}
}
