// Package batch checks many documents concurrently with a grammar checker.
//
// Documents flow through a pipeline: they are checked by a pool of workers, triaged
// on whether the checker found issues, corrected when it did, and collected back in
// input order.
package batch
