// Package vdf parses the nested brace-delimited key/value text format used
// by launcher library manifests. Parsing is best effort by contract: callers
// validate the fields they need instead of relying on parse failures.
package vdf
