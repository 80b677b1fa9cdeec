// Package healing repairs model-produced tool calls so they conform to the
// tool schemas declared by the client: argument format recovery, parameter
// name matching, parameter type coercion, and the history-level sweeps that
// keep multi-turn transcripts consistent.
package healing

import (
	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// SchemaInfo is the per-tool view the healer works against: the declared
// property names and their JSON Schema types.
type SchemaInfo struct {
	Names map[string]struct{}
	Types map[string]string
}

// SchemaIndex maps tool name to its schema view. Built once per request when
// the client declares tools; nil when it does not.
type SchemaIndex map[string]SchemaInfo

// NewSchemaIndex builds the index from the request's tool declarations.
// Returns nil for an empty tool list so callers can skip healing entirely.
func NewSchemaIndex(tools []anthropic.ToolDefinition) SchemaIndex {
	if len(tools) == 0 {
		return nil
	}
	idx := make(SchemaIndex, len(tools))
	for _, tool := range tools {
		info := SchemaInfo{
			Names: make(map[string]struct{}),
			Types: make(map[string]string),
		}
		props, _ := tool.InputSchema["properties"].(map[string]any)
		for name, raw := range props {
			info.Names[name] = struct{}{}
			if prop, ok := raw.(map[string]any); ok {
				if t, ok := prop["type"].(string); ok {
					info.Types[name] = t
				}
			}
		}
		idx[tool.Name] = info
	}
	return idx
}

// Lookup returns the schema view for a tool name.
func (idx SchemaIndex) Lookup(name string) (SchemaInfo, bool) {
	if idx == nil {
		return SchemaInfo{}, false
	}
	info, ok := idx[name]
	return info, ok
}
