// Package testutil provides drive test helpers: an in-memory Driver
// registered under the "memory" name, and assertion helpers for manager
// fakes.
package testutil
