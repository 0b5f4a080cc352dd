// Package component defines the lifecycle contract implemented by drivekit's
// infrastructure pieces: start, stop, and health reporting.
package component
