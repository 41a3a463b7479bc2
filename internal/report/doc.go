// Package report presents sweep results and payout curves.
//
// Every run prints two summary lines: the pre-impact expected return and the
// round-trip impact cost at full (100%) sizing. Curves can additionally be
// written as CSV, JSON or an XLSX workbook with line charts, or drawn as a
// text plot for terminals.
//
// Undefined points (NaN) are written as empty CSV cells, JSON nulls and blank
// spreadsheet cells, and are left out of plots.
package report
