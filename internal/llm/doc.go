// Package llm talks to language model providers and turns free-text Spanish
// messages into structured actions. It supports OpenAI, Anthropic and
// Gemini, with retry logic, rate limiting, and response caching.
package llm
