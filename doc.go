// Package ollamabridge is a local-inference gateway that presents the
// Anthropic Messages API in front of an Ollama server.
//
// Agent clients speak to it exactly as they would to the Anthropic API:
// tool definitions, tool results, extended thinking, and streaming all
// work, while inference runs on whatever models the local Ollama has
// installed. The gateway translates both wire formats, converts Ollama's
// NDJSON stream into a well-formed Messages SSE transcript, and repairs
// the malformed tool calls smaller local models tend to produce.
//
// # Quick Start
//
// Install:
//
//	go install github.com/kadirpekel/ollamabridge/cmd/ollamabridge@latest
//
// Start the gateway in front of a local Ollama:
//
//	ollamabridge serve --ollama-url http://localhost:11434 --default-model qwen3:8b
//
// Or with a config file:
//
//	ollamabridge serve --config ollamabridge.yaml
//
//	yaml
//	port: 3000
//	ollama_url: http://localhost:11434
//	default_model: qwen3:8b
//	model_map:
//	  claude-3-5-haiku-20241022: llama3.2:3b
//
// Point an Anthropic client at http://localhost:3000 and request any
// claude model name; it resolves through model_map or default_model.
//
// # Packages
//
// The translation core lives under pkg/:
//
//	import (
//	    "github.com/kadirpekel/ollamabridge/pkg/adapter"
//	    "github.com/kadirpekel/ollamabridge/pkg/healing"
//	    "github.com/kadirpekel/ollamabridge/pkg/server"
//	)
package ollamabridge
