// Package annotation runs the interactive labeling session.
//
// An Engine walks the patient store in document order, skips patients that
// are already annotated, and asks for one label per segment through a
// KeySource. Labels go straight into the store; the store is written to disk
// every SaveEvery completed patients and whenever the session ends. Session
// state lives in a Session value that each step takes and returns, so the
// walk can be driven and inspected without a terminal.
package annotation
