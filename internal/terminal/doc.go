// Package terminal is the text front-end of an annotation session: a
// single-key reader that puts the terminal in raw mode, and a presenter that
// prints the current segment with a sparkline of its waveform.
package terminal
