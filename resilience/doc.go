// Package resilience provides retry with exponential backoff and jitter.
//
// The local filesystem driver uses it to ride out transient OS-level
// resource exhaustion (EMFILE/ENFILE); any caller can reuse it for
// transient provider failures.
package resilience
