// Package mmfile memory-maps files for random-access reads.
package mmfile
