// Package panel transforms a long-format price panel after quality filtering:
// dense-grid completion with gap filling, calendar-bucket resampling,
// per-ticker returns and a wide reshape for reporting.
//
// Every function returns a fresh slice and never mutates its input.
package panel
