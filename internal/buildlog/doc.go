// Package buildlog records service instantiations in SQLite so that build
// failures and slow constructors can be inspected after the fact.
//
// Entries are written from registry build events (see telemetry.Reporter)
// and read back through the inspection API, newest first.
package buildlog
