// Package ui holds the terminal front ends: the interactive trace viewer,
// the multi-file load progress display and the per-trace session store.
//
// State carries all viewer behaviour and can be driven without a terminal;
// Viewer only maps keys and window sizes onto it and draws the result.
package ui
