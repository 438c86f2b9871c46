// Package scanner discovers installed games across launcher families. The
// Steam scanner reads appmanifest files, the Epic scanner reads JSON item
// manifests, and the remaining families discover executables by bounded
// directory walks. Scanners are heuristic by design: they emit best-effort
// normalized results and reject records that fail install-state checks.
package scanner
