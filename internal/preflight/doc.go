// Package preflight provides readiness checks for the files and directories
// ecgnote depends on.
//
// The CLI "ecgnote doctor" command runs RunAll and prints one row per check.
// Optional artwork and cover checks are skipped when not configured.
package preflight
