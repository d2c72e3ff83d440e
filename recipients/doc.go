// Package recipients rebuilds the recipient relation of broadcasts from the
// msgs they were delivered through.
//
// Recompute derives the distinct, non-null contact ids of one broadcast's
// msgs, clears the broadcast's current recipients and inserts the derived set
// in fixed-size batches. Run walks every broadcast above the stored highpoint
// in ascending id order, recomputes it, prints a progress line and advances
// the highpoint; when the walk finishes the highpoint is deleted. Because
// Recompute replaces rather than merges, reprocessing a broadcast after a
// crash converges to the same result.
package recipients
