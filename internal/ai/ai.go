// Package ai provides the embedding and generation clients. Consumers
// declare their own small interfaces (Embed / Generate); this package holds
// the concrete providers: an Ollama-compatible HTTP client and an OpenAI
// client.
//
// Failures are never substituted with fabricated content, every error
// surfaces wrapped in ErrUpstreamService so callers can map it uniformly.
package ai

import "errors"

// ErrUpstreamService indicates the embedding or generation backend failed.
var ErrUpstreamService = errors.New("upstream service failure")
