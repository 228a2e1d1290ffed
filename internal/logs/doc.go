// Package logs reads the ecgnote log file for the "ecgnote logs" command.
//
// The interactive session logs only to the file so the terminal stays
// usable; this package tails that file with bounded memory, optionally
// keeping only lines that mention a session or patient identifier, and
// polls for new lines in follow mode until the context ends.
package logs
