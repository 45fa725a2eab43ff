// Package execution orchestrates script runs. The Controller loads the
// requested record, resolves an interpreter plan, and delegates process
// lifecycle to the supervisor; the package also provides the Cobra command
// builder for the run verb, wiring console event presentation and interrupt
// driven cancellation.
package execution
