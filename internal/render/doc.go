// Package render draws the per-segment waveform images used by the annotation
// prompt and the PDF report. Each patient gets one PNG per segment with the
// original trace above the denoised one.
package render
