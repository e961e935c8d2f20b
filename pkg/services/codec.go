package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sitecms/pkg/content"
)

// FormatOf maps a file name to its document format: json, yaml or toml.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// DecodePage parses a page document of the form
// {section: {locale: tree}}. Entries that are not objects are skipped.
func DecodePage(data []byte, format string) (content.PageContent, error) {
	var doc content.Node
	switch format {
	case "json":
		if len(bytes.TrimSpace(data)) == 0 {
			return content.PageContent{}, nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "toml":
		var fm map[string]interface{}
		if err := toml.Unmarshal(data, &fm); err != nil {
			return nil, err
		}
		doc = content.FromValue(fm)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return pageFromNode(doc), nil
}

// EncodePage renders pc in format. Sections and locales are written in
// sorted order; trees keep their own key order except in TOML, which also
// cannot hold nulls: null object members are dropped and null list items
// become empty strings.
func EncodePage(pc content.PageContent, format string) ([]byte, error) {
	doc := pageToNode(pc)
	var buf bytes.Buffer
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case "toml":
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(pruneNulls(doc.Interface())); err != nil {
			return nil, err
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return buf.Bytes(), nil
}

func pageFromNode(doc content.Node) content.PageContent {
	pc := content.PageContent{}
	for _, section := range doc.Fields() {
		if !section.Value.IsObject() {
			continue
		}
		tree := content.LocalizedTree{}
		for _, loc := range section.Value.Fields() {
			tree[content.Locale(loc.Key)] = loc.Value
		}
		pc[section.Key] = tree
	}
	return pc
}

func pageToNode(pc content.PageContent) content.Node {
	keys := make([]string, 0, len(pc))
	for k := range pc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sections := make([]content.Field, 0, len(keys))
	for _, k := range keys {
		tree := pc[k]
		locales := make([]content.Field, 0, len(tree))
		for _, l := range tree.Locales() {
			locales = append(locales, content.F(string(l), tree[l]))
		}
		sections = append(sections, content.F(k, content.Object(locales...)))
	}
	return content.Object(sections...)
}

func pruneNulls(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, elem := range v {
			if elem == nil {
				continue
			}
			out[k] = pruneNulls(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			if v[i] == nil {
				out[i] = ""
				continue
			}
			out[i] = pruneNulls(v[i])
		}
		return out
	default:
		return v
	}
}
