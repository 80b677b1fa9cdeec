package healing

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// Action records one repair the healer applied, for logging.
type Action struct {
	Tool  string
	Kind  string // "format", "rename" or "coerce"
	Param string
	From  string
	To    string
}

// Healer repairs the tool calls of a single request. It carries the
// request's schema index and guarantees tool_use id uniqueness within the
// response it serves.
type Healer struct {
	idx  SchemaIndex
	seen map[string]struct{}
	log  *slog.Logger

	// OnAction, when set, is invoked once per applied repair.
	OnAction func(Action)
}

// NewHealer builds a per-request healer. A nil index disables name and type
// healing; format recovery and id assignment still apply.
func NewHealer(idx SchemaIndex, log *slog.Logger) *Healer {
	if log == nil {
		log = slog.Default()
	}
	return &Healer{idx: idx, seen: make(map[string]struct{}), log: log}
}

// NewID returns a fresh tool_use id, unique within this healer's response.
func (h *Healer) NewID() string {
	for {
		id := anthropic.NewToolUseID()
		if _, dup := h.seen[id]; !dup {
			h.seen[id] = struct{}{}
			return id
		}
	}
}

// HealToolCall runs all three phases on a model-produced tool call and
// returns a ready tool_use block with a fresh id. Healing never fails on
// arguments (an unrepairable payload is wrapped as {"raw": ...}), but a
// call naming no usable tool is dropped: ok is false for an empty name or,
// when the request declared tools, a name none of them match.
func (h *Healer) HealToolCall(name string, args any) (anthropic.ContentBlock, bool) {
	if name == "" || !h.knownTool(name) {
		h.log.Warn("dropping tool call with unknown name", "tool", name)
		return anthropic.ContentBlock{}, false
	}

	input, actions := HealArguments(name, args, h.idx)
	for _, a := range actions {
		h.log.Debug("healed tool call",
			"tool", a.Tool, "kind", a.Kind, "param", a.Param,
			"from", a.From, "to", a.To)
		if h.OnAction != nil {
			h.OnAction(a)
		}
	}
	return anthropic.ToolUseBlock(h.NewID(), name, input), true
}

// knownTool reports whether a produced call names a tool this request can
// accept. A request without declared tools accepts any name.
func (h *Healer) knownTool(name string) bool {
	if h.idx == nil {
		return true
	}
	_, ok := h.idx.Lookup(name)
	return ok
}

// HealArguments applies the three healing phases to a raw argument value.
func HealArguments(tool string, args any, idx SchemaIndex) (map[string]any, []Action) {
	var actions []Action

	obj, formatActions := NormalizeFormat(tool, args)
	actions = append(actions, formatActions...)

	if info, ok := idx.Lookup(tool); ok {
		var renamed, coerced []Action
		obj, renamed = HealNames(tool, obj, info)
		actions = append(actions, renamed...)
		obj, coerced = HealTypes(tool, obj, info)
		actions = append(actions, coerced...)
	}
	return obj, actions
}

// NormalizeFormat is phase one: recover a JSON object from whatever shape
// the model produced. A string payload is tried as direct JSON, then with
// escaped quotes unescaped, then unwrapped from an outer quoting layer.
// Anything unrecoverable is wrapped as {"raw": original}.
func NormalizeFormat(tool string, args any) (map[string]any, []Action) {
	switch v := args.(type) {
	case map[string]any:
		return v, nil
	case nil:
		return map[string]any{}, nil
	case string:
		if obj, ok := parseObject(v); ok {
			return obj, []Action{{Tool: tool, Kind: "format", From: "string", To: "object"}}
		}
		if obj, ok := parseObject(strings.ReplaceAll(v, `\"`, `"`)); ok {
			return obj, []Action{{Tool: tool, Kind: "format", From: "escaped-string", To: "object"}}
		}
		if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
			var inner string
			if err := json.Unmarshal([]byte(v), &inner); err == nil {
				if obj, ok := parseObject(inner); ok {
					return obj, []Action{{Tool: tool, Kind: "format", From: "quoted-string", To: "object"}}
				}
			}
		}
		return map[string]any{"raw": v}, []Action{{Tool: tool, Kind: "format", From: "string", To: "raw"}}
	default:
		return map[string]any{"raw": v}, []Action{{Tool: tool, Kind: "format", From: observedType(v), To: "raw"}}
	}
}

// parseObject parses s and accepts only a JSON object, not arrays or
// scalars.
func parseObject(s string) (map[string]any, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, false
	}
	obj, ok := parsed.(map[string]any)
	return obj, ok
}

// HealNames is phase two: map argument keys onto the schema's property
// names by substring match. A key is renamed only when exactly one schema
// property contains it, or is contained by it. When nothing needs renaming
// the input map is returned as-is.
func HealNames(tool string, args map[string]any, info SchemaInfo) (map[string]any, []Action) {
	var renames map[string]string
	for k := range args {
		if _, ok := info.Names[k]; ok {
			continue
		}
		var candidate string
		count := 0
		for p := range info.Names {
			if strings.Contains(p, k) || strings.Contains(k, p) {
				candidate = p
				count++
			}
		}
		if count != 1 {
			continue
		}
		if _, taken := args[candidate]; taken {
			continue
		}
		if renames == nil {
			renames = make(map[string]string)
		}
		renames[k] = candidate
	}
	if len(renames) == 0 {
		return args, nil
	}

	healed := make(map[string]any, len(args))
	actions := make([]Action, 0, len(renames))
	for k, v := range args {
		if to, ok := renames[k]; ok {
			healed[to] = v
			actions = append(actions, Action{Tool: tool, Kind: "rename", Param: k, From: k, To: to})
			continue
		}
		healed[k] = v
	}
	return healed, actions
}

// HealTypes is phase three: coerce argument values toward the schema's
// declared types. Only the safe conversions are attempted; anything else is
// left alone. When nothing needs coercing the input map is returned as-is.
func HealTypes(tool string, args map[string]any, info SchemaInfo) (map[string]any, []Action) {
	var healed map[string]any
	var actions []Action

	set := func(k string, v any, from, to string) {
		if healed == nil {
			healed = make(map[string]any, len(args))
			for ck, cv := range args {
				healed[ck] = cv
			}
		}
		healed[k] = v
		actions = append(actions, Action{Tool: tool, Kind: "coerce", Param: k, From: from, To: to})
	}

	for k, v := range args {
		if v == nil {
			continue
		}
		want, ok := info.Types[k]
		if !ok {
			continue
		}
		got := observedType(v)
		if got == want || (want == "integer" && got == "number") {
			continue
		}
		switch {
		case want == "string" && got == "array":
			set(k, joinArray(v.([]any)), "array", "string")
		case want == "string" && got == "number":
			set(k, formatNumber(v.(float64)), "number", "string")
		case (want == "number" || want == "integer") && got == "string":
			if f, err := strconv.ParseFloat(v.(string), 64); err == nil {
				set(k, f, "string", "number")
			}
		case want == "boolean" && got == "string":
			switch strings.ToLower(v.(string)) {
			case "true":
				set(k, true, "string", "boolean")
			case "false":
				set(k, false, "string", "boolean")
			}
		}
	}
	if healed == nil {
		return args, nil
	}
	return healed, actions
}

// observedType names the JSON type of a decoded value.
func observedType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// joinArray flattens an array value into a single comma-separated string.
func joinArray(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch e := item.(type) {
		case string:
			parts = append(parts, e)
		case float64:
			parts = append(parts, formatNumber(e))
		default:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, ", ")
}

// formatNumber renders a JSON number without a trailing ".0" for whole
// values.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
