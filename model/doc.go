// Package model defines the Provider abstraction the llm agent drives for
// text generation, plus a deterministic mock. Concrete providers live in
// sub-packages (openai, anthropic) so applications only link the SDKs they
// actually use.
package model
