package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate indicates a YAML template that is neither a tree nor
// a list of named trees.
var ErrInvalidTemplate = errors.New("invalid template")

// ImportYAML reads report templates written in YAML. A template is either
// a single tree:
//
//	type: textBlock
//	title: Findings
//	numbering: "1"
//	level: 1
//	sections:
//	  - type: textArea
//	    content: No activity found.
//
// or a document with named trees:
//
//	trees:
//	  - name: findings
//	    content: {type: textBlock, ...}
//
// A lone tree is named report.DefaultTreeName. Trees go through the same
// decoder as JSON content, so errors carry the same kinds and paths.
func ImportYAML(src []byte, opts ...content.DecodeOption) ([]report.Tree, error) {
	var doc any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a mapping at the top level", ErrInvalidTemplate)
	}

	raw, named := obj["trees"]
	if !named {
		root, err := yamlTree(obj, opts)
		if err != nil {
			return nil, err
		}
		return report.NewTrees(report.NewTree(report.DefaultTreeName, root))
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: trees must be a list", ErrInvalidTemplate)
	}
	trees := make([]report.Tree, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: trees[%d] must be a mapping", ErrInvalidTemplate, i)
		}
		name, _ := entry["name"].(string)
		root, err := yamlTree(entry["content"], opts)
		if err != nil {
			return nil, &report.TreeError{Tree: name, Err: err}
		}
		trees = append(trees, report.NewTree(name, root))
	}
	return report.NewTrees(trees...)
}

// yamlTree converts a YAML node to tagged JSON and decodes it.
func yamlTree(v any, opts []content.DecodeOption) (content.Node, error) {
	data, err := json.Marshal(tagged(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return content.Decode(data, opts...)
}

// tagged renames the "type" key to the wire discriminator throughout.
func tagged(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if k == "type" {
				if _, dup := v["$type"]; !dup {
					k = "$type"
				}
			}
			out[k] = tagged(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = tagged(item)
		}
		return out
	default:
		return v
	}
}
