// Package dataset reads plate cytometry exports into wellmatrix datasets.
//
// The expected CSV layout is a header of Well,Site,Cell followed by one
// column per measured substance, then one line per detected cell:
//
//	Well,Site,Cell,OCT4,SOX2
//	B02,1,1,0.52,1.7
//	B02,1,2,2.04,0.1
//
// Parse rejects anything else with a ParseError naming the offending line.
package dataset
