// Package btelem is an in-process telemetry library for embedded and
// systems code.
//
// A Context owns a fixed-capacity lock-free ring (see Ring), a schema
// registry (see Registry) describing the payload layout of each logged
// entry id, and a small table of client cursors (see Client) that scan the
// ring independently of producers and of each other.
//
// Producers call Log (or LogBytes) from any number of goroutines at bounded
// latency; no ring operation on the producer path takes a lock or
// allocates. Consumers call Context.Drain or Context.DrainPacked to walk
// entries past their cursor; a slow consumer never blocks a producer, it
// only accumulates a dropped count for entries overwritten before it could
// read them.
//
// See DESIGN.md for the grounding of each component and SPEC_FULL.md for
// this package's full design document.
package btelem
