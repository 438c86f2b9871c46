// Package services defines the error taxonomy shared by scanners, providers,
// and the metadata orchestrator, plus the bounded retry machinery for
// outbound calls.
package services
