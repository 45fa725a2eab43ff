// Package supervisor owns the registry of live script processes. It starts
// at most one child process per script identifier, streams the child's output
// into the run event sequence, and terminates processes on request. The
// registry map is the only shared mutable state; it is guarded by an internal
// mutex and mutated only by run registration and idempotent deregistration.
package supervisor
