// Package evaluation compares models side by side: a Runner asks each
// selected provider/model pair the same questions and collects every answer
// with its estimated cost, and a SQLite-backed Store persists the runs for
// later ranking and CSV export.
package evaluation
