// Package files finds plate exports on disk.
//
// Discovery resolves command line arguments into CSV exports: a file
// argument is taken as is, a directory argument contributes every CSV file
// directly inside it. Results are ordered by name so repeated runs over the
// same directory aggregate in the same order.
package files
