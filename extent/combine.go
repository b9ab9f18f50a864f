package extent

// CombineRuns merges runs that are adjacent on the image into single runs.
//
// runs must already be in ascending image-offset order. A run is folded
// into its predecessor when the predecessor ends exactly where it starts;
// otherwise it is appended unchanged. Runs are never reordered, so the
// result covers the same bytes in the same order, and combining a combined
// slice is a no-op. The input slice is not modified.
func CombineRuns(runs []ByteRun) []ByteRun {
	if len(runs) == 0 {
		return nil
	}
	out := make([]ByteRun, 0, len(runs))
	out = append(out, runs[0])
	for _, run := range runs[1:] {
		last := &out[len(out)-1]
		if adjacent(*last, run) {
			merged := New(last.ImgOffset, last.Len+run.Len)
			if last.Has(FieldFileOffset) {
				merged = merged.WithFileOffset(last.FileOffset)
			}
			merged.SectorSize = last.SectorSize
			*last = merged
			continue
		}
		out = append(out, run)
	}
	return out
}

// adjacent reports whether b starts exactly where a ends. Sparse runs and
// runs without an image position never merge.
func adjacent(a, b ByteRun) bool {
	const placed = FieldImgOffset | FieldLen
	if !a.Has(placed) || !b.Has(placed) || a.Len < 0 || b.Len < 0 {
		return false
	}
	return a.ImgOffset+a.Len == b.ImgOffset
}
