// Package main hosts the ecgnote CLI entrypoint and command graph.
//
// Each workflow stage has its own command: intake builds the store, render
// draws segment images, annotate runs the interactive labeling session,
// report writes the PDFs, and status, stats and doctor inspect the result.
// Configuration is resolved once per invocation by the command context.
package main
