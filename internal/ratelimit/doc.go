// Package ratelimit provides the process-wide admission-control queue that
// serializes outbound catalog calls, enforcing a global dispatch floor and
// per-service minimum intervals with a bounded in-flight cap above them.
package ratelimit
