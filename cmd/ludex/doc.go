// Command ludex scans launcher libraries for installed games, resolves them
// against external catalogs, and maintains the persisted game library.
package main
