// Package shellplan resolves the concrete interpreter invocation for a saved
// script. It maps a requested shell kind and the host platform to an
// executable plus argument list, including ordered fallback discovery of a
// POSIX-compatible bash on Windows hosts.
package shellplan
