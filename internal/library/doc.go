// Package library persists resolved game records in SQLite. Records key on
// their install location so repeated scans converge instead of duplicating.
package library
