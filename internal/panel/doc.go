// Package panel loads and cleans the real-effort experiment panel.
//
// The input is a flat observation table, one row per subject-session decision:
// worker id, net distance in days between decision and work, piece-rate wage,
// timing and projection flags, the chosen effort, and optional explicit
// censoring flags. CSV exports are header-mapped so column order does not
// matter; Excel workbooks are scanned for the first sheet with a recognizable
// header row.
//
// Cleaning drops rows that cannot enter the likelihood (missing effort,
// non-positive wage or worker id, effort outside the task bounds) and derives
// the censoring flags from the bounds when the export does not carry them.
// The cleaning report records every dropped row by reason.
package panel
