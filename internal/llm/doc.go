// Package llm provides the language-model oracle that decides whether a chat
// message is financial, extracts transactions and currencies from it, reformats
// edits and writes confirmations. It supports OpenAI and Anthropic with retry,
// rate limiting, per-call timeouts and validation of every response contract.
package llm
