// Package logging wires log/slog with the console and JSON handlers used by
// the subtidy CLI, plus the standardized attribute keys shared across
// components.
package logging
