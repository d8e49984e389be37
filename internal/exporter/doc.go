// Package exporter writes well count matrices as CSV and as Excel workbooks.
//
// WriteMatrixCSV and WriteBlocksCSV produce plain CSV with the row keys in
// the first column. IndividualWorkbook lays out one analysed file: a
// metadata block followed by the total, filtered and percent matrices, each
// preceded by an explanation line. ComparisonWorkbook does the same for an
// aggregation of several experiments followed by their mean and standard
// deviation.
//
// Example usage:
//
//	wb, err := exporter.IndividualWorkbook(exporter.IndividualReport{
//	    FileName:   "plate1.csv",
//	    Substances: ds.Substances,
//	    Thresholds: thresholds,
//	    Result:     result,
//	})
//	if err != nil {
//	    return err
//	}
//	defer wb.Close()
//	_, err = wb.WriteTo(w)
package exporter
