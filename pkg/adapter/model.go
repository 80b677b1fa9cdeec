// Package adapter translates between the Anthropic Messages API surface and
// the Ollama chat API: model resolution, request and response conversion,
// the streaming transformer, and token approximation.
package adapter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kadirpekel/ollamabridge/pkg/anthropic"
)

// thinkingCapablePrefixes are the reasoning model families whose upstream
// names support the think flag. Matched case-insensitively as prefixes.
var thinkingCapablePrefixes = []string{
	"qwen3",
	"deepseek-r1",
	"magistral",
	"nemotron",
	"glm4",
	"qwq",
}

// IsThinkingCapable reports whether the resolved model supports extended
// thinking.
func IsThinkingCapable(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range thinkingCapablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ThinkingNotSupportedError is returned by the strict thinking policy when
// the client asks for extended thinking on a model that cannot provide it.
type ThinkingNotSupportedError struct {
	Model string
}

func (e *ThinkingNotSupportedError) Error() string {
	return fmt.Sprintf("model %q does not support extended thinking", e.Model)
}

// Resolver maps client-supplied model names onto upstream ones and applies
// the thinking policy.
type Resolver struct {
	ModelMap       map[string]string
	DefaultModel   string
	StrictThinking bool
	Log            *slog.Logger
}

// Resolve picks the upstream model: an explicit mapping wins, non-claude
// names pass through untouched, and claude names fall back to the default.
func (r *Resolver) Resolve(model string) string {
	if mapped, ok := r.ModelMap[model]; ok {
		return mapped
	}
	if !strings.HasPrefix(model, "claude") {
		return model
	}
	return r.DefaultModel
}

// ApplyThinkingPolicy decides whether the upstream request gets think=true.
// When the request asks for thinking on an incapable model, strict mode
// rejects it and lenient mode strips the field with a warning.
func (r *Resolver) ApplyThinkingPolicy(req *anthropic.Request, resolved string) (bool, error) {
	if req.Thinking == nil {
		return false, nil
	}
	if IsThinkingCapable(resolved) {
		return true, nil
	}
	if r.StrictThinking {
		return false, &ThinkingNotSupportedError{Model: resolved}
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log.Warn("model does not support extended thinking, stripping the request field",
		"event", "thinking.stripped",
		"model", resolved)
	req.Thinking = nil
	return false, nil
}
