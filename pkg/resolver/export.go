package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"scraperhq/anchor/pkg/confmap"
	"scraperhq/anchor/pkg/source"
)

// Export returns the current configuration as a nested mapping. Secret
// fields are omitted unless includeSecrets is set.
func (m *Manager) Export(includeSecrets bool) (map[string]any, error) {
	flat := m.Snapshot().Export(includeSecrets)
	nested, errs := confmap.Expand(flat)
	if err := errs.ErrOrNil(false); err != nil {
		return nil, err
	}
	return nested, nil
}

// SaveToFile writes the current configuration to path in the given format
// ("yaml" or "json"). Secret fields are omitted unless includeSecrets is
// set, so a saved file is safe to share by default.
func (m *Manager) SaveToFile(path, format string, includeSecrets bool) error {
	f, err := source.ParseFormat(format)
	if err != nil {
		return err
	}

	nested, err := m.Export(includeSecrets)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case source.FormatJSON:
		data, err = json.MarshalIndent(nested, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	default:
		data, err = yaml.Marshal(nested)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// CreateTemplate renders an annotated YAML document carrying every schema
// field at its default value, with the field description as a comment. The
// output parses back into a valid configuration file.
func (m *Manager) CreateTemplate() ([]byte, error) {
	defaults := make(confmap.Map, m.schema.Len())
	for _, f := range m.schema.Fields() {
		defaults[f.Name] = f.Default
	}
	nested, errs := confmap.Expand(defaults)
	if err := errs.ErrOrNil(false); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("# Scraper configuration. Values shown are the defaults;\n")
	sb.WriteString("# uncomment and edit the fields you want to change.\n")
	if err := m.writeTemplateSection(&sb, "", nested, 0); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func (m *Manager) writeTemplateSection(sb *strings.Builder, prefix string, node map[string]any, indent int) error {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pad := strings.Repeat("  ", indent)
	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + confmap.Separator + key
		}

		if child, ok := node[key].(map[string]any); ok {
			if _, isField := m.schema.Lookup(path); !isField {
				sb.WriteString("\n" + pad + key + ":\n")
				if err := m.writeTemplateSection(sb, path, child, indent+1); err != nil {
					return err
				}
				continue
			}
		}

		if f, ok := m.schema.Lookup(path); ok && f.Description != "" {
			sb.WriteString(pad + "# " + f.Description + "\n")
		}
		rendered, err := yaml.Marshal(map[string]any{key: node[key]})
		if err != nil {
			return fmt.Errorf("failed to render template field %q: %w", path, err)
		}
		for _, line := range strings.Split(strings.TrimRight(string(rendered), "\n"), "\n") {
			sb.WriteString(pad + line + "\n")
		}
	}
	return nil
}
