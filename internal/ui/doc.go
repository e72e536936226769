// Package ui styles terminal output with lipgloss.
//
// A [Painter] colors notices by severity; [Palette] is the lipgloss implementation and [Plain] leaves text as is
// for --no-color and non-terminal output. [Summary] renders the end-of-build counts.
package ui
