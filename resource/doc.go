// Package resource bounds what a scanning process may consume: staging
// memory, concurrently scanned streams, and input read throughput.
//
// A nil *Controller imposes no limits, so callers can pass one through
// unconditionally.
package resource
