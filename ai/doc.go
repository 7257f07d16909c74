// Package ai defines the interfaces for the AI services used by the news
// pipeline: text embedding, article summarization, and passage reranking.
//
// The openai subpackage implements these against any OpenAI-compatible API
// (Ollama, LocalAI, vLLM, OpenAI itself). The mock subpackage provides
// deterministic in-memory implementations for testing.
package ai
