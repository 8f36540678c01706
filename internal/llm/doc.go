// Package llm talks to hosted language models to categorize bank narrations
// in batches. It supports OpenAI-compatible and Anthropic providers, with
// rate limiting, result caching and an explicit retry policy.
package llm
