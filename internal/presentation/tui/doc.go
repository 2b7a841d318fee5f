// Package tui renders sequences for the terminal: aligned tables colored with termenv,
// markdown summaries rendered with glamour, and TTY detection with x/term.
package tui
