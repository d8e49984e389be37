// Package wellmatrix computes well-indexed count matrices for multi-well
// plate cytometry data.
//
// A Dataset holds one row per detected cell: the well identifier, the site
// and cell indices, and one intensity value per tracked substance. From a
// dataset and a threshold vector the package derives three co-indexed
// matrices:
//
//   - the total cell count per well
//   - the count of cells meeting every substance threshold ("double positives")
//   - the percentage of double positives per well
//
// Percent matrices from several experiments can then be combined with Mean
// and StdDev.
//
// # Index layout
//
// A well identifier such as "B02" splits into the row key "B" and the column
// key "02". Row and column keys are ordered lexicographically as strings, so
// unpadded numbers order as "1", "10", "2". Any row/column combination not
// observed in the data is present with a count of zero.
//
// # Usage
//
//	ds, err := wellmatrix.NewDataset([]string{"OCT4", "SOX2"}, rows)
//	if err != nil {
//	    return err
//	}
//	res, err := wellmatrix.Aggregate(ds, wellmatrix.Thresholds{1.5, 2}, wellmatrix.WithDecimals(1))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Percent.Get("B", "02"))
//
// Every function is pure. Matrix values are never modified after
// construction, so results can be shared between goroutines freely.
package wellmatrix
