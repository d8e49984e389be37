// Package shared groups helpers used across cellviewer packages.
//
// The testutil subpackage provides a log-capturing slog handler and
// generators for plate measurement CSV fixtures:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    csv := testutil.PlateCSV(testutil.PlateSpec{Rows: 2, Cols: 3, CellsPerWell: 4})
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
