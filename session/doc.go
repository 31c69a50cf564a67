// Package session houses the chat-session Store contract and its in-memory
// implementation. The dialogue agent receives a Store at construction time;
// durable backends (Postgres, Redis, ...) can be added without changing any
// calling code - only the wiring layer decides which implementation to
// instantiate.
package session
