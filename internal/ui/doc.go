// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate run event streams into concise messages so that
// script execution feedback remains actionable for CLI users while raw
// script output flows to the console writers untouched.
package ui
