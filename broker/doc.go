// Package broker implements the in-process message broker: best-effort,
// at-most-once pub/sub delivery keyed by agent role, plus correlation-based
// dispatch of Response/Error messages to one-shot futures so callers can wait
// synchronously for the answer to a command. Delivery is single-process only;
// undeliverable messages are logged and dropped.
package broker
