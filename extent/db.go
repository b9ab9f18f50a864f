package extent

import (
	"cmp"
	"fmt"
	"io"
	"iter"
	"math"
	"slices"
	"sort"
)

// DB is a collection of runs of which no two overlap.
//
// Runs are kept in insertion order, which decides which run is reported
// when a candidate overlaps several. A secondary index ordered by image
// offset keeps queries logarithmic. Adjacent runs are stored as given;
// use CombineRuns to merge them.
//
// NOT thread-safe. Callers sharing a DB across goroutines must serialize
// access themselves.
type DB struct {
	sectorSize int64
	runs       []ByteRun // insertion order
	byOffset   []int     // indexes into runs, ordered by ImgOffset
}

// NewDB returns an empty database. A sectorSize of zero or less selects
// DefaultSectorSize.
func NewDB(sectorSize int64) *DB {
	if sectorSize <= 0 {
		sectorSize = DefaultSectorSize
	}
	return &DB{sectorSize: sectorSize}
}

// SectorSize returns the database's sector size.
func (db *DB) SectorSize() int64 { return db.sectorSize }

// Len returns the number of stored runs.
func (db *DB) Len() int { return len(db.runs) }

// Runs returns the stored runs in insertion order.
func (db *DB) Runs() []ByteRun { return slices.Clone(db.runs) }

// Intersects returns the first stored run, in insertion order, that
// overlaps candidate.
//
// Two runs overlap when either boundary of one falls strictly inside the
// other or one encloses the other. A zero-length candidate intersects
// everything, even an empty database: Intersects reports true with a zero
// ByteRun. Tools that assemble ground truth rely on that. A negative length
// or image offset, a missing image offset, or an end past math.MaxInt64 is
// an *InvalidExtentError.
func (db *DB) Intersects(candidate ByteRun) (ByteRun, bool, error) {
	if err := validate(candidate); err != nil {
		return ByteRun{}, false, err
	}
	if candidate.Len == 0 {
		return ByteRun{}, true, nil
	}
	idx, ok := db.firstOverlap(candidate.ImgOffset, candidate.End())
	if !ok {
		return ByteRun{}, false, nil
	}
	return db.runs[idx], true, nil
}

func validate(r ByteRun) error {
	switch {
	case !r.Has(FieldImgOffset):
		return &InvalidExtentError{Extent: r, Reason: "no image offset"}
	case !r.Has(FieldLen):
		return &InvalidExtentError{Extent: r, Reason: "no length"}
	case r.Len < 0:
		return &InvalidExtentError{Extent: r, Reason: "length cannot be negative"}
	case r.ImgOffset < 0:
		return &InvalidExtentError{Extent: r, Reason: "image offset cannot be negative"}
	case r.ImgOffset > math.MaxInt64-r.Len:
		return &InvalidExtentError{Extent: r, Reason: "extent end overflows int64"}
	}
	return nil
}

// firstOverlap returns the lowest insertion index among stored runs that
// overlap [start, stop). Stored runs are disjoint, so ordering them by
// start also orders them by end and the overlapping ones are contiguous in
// byOffset.
func (db *DB) firstOverlap(start, stop int64) (int, bool) {
	i := sort.Search(len(db.byOffset), func(i int) bool {
		return db.runs[db.byOffset[i]].End() > start
	})
	best := -1
	for ; i < len(db.byOffset); i++ {
		idx := db.byOffset[i]
		if db.runs[idx].ImgOffset >= stop {
			break
		}
		if best < 0 || idx < best {
			best = idx
		}
	}
	return best, best >= 0
}

// IntersectsRuns returns the first stored run that overlaps any of runs,
// checking runs in order.
func (db *DB) IntersectsRuns(runs []ByteRun) (ByteRun, bool, error) {
	for _, r := range runs {
		hit, ok, err := db.Intersects(r)
		if err != nil || ok {
			return hit, ok, err
		}
	}
	return ByteRun{}, false, nil
}

// IntersectsSector returns the stored run that holds sector n.
// Sector numbers start at 0.
func (db *DB) IntersectsSector(n int64) (ByteRun, bool) {
	hit, ok, _ := db.Intersects(db.RunForSector(n, 1))
	return hit, ok
}

// Add stores extent. It fails with *CollisionError, leaving the database
// unchanged, if extent overlaps a stored run.
func (db *DB) Add(extent ByteRun) error {
	hit, ok, err := db.Intersects(extent)
	if err != nil {
		return err
	}
	if ok {
		return &CollisionError{Candidate: extent, Existing: hit}
	}
	idx := len(db.runs)
	db.runs = append(db.runs, extent)
	pos, _ := slices.BinarySearchFunc(db.byOffset, extent.ImgOffset, func(i int, off int64) int {
		return cmp.Compare(db.runs[i].ImgOffset, off)
	})
	db.byOffset = slices.Insert(db.byOffset, pos, idx)
	return nil
}

// AddRuns adds runs in order and stops at the first failure. Runs added
// before the failure stay in the database; there is no rollback. Callers
// needing all-or-nothing semantics should check IntersectsRuns first or
// work on a copy.
func (db *DB) AddRuns(runs []ByteRun) error {
	for _, r := range runs {
		if err := db.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// SectorsForBytes returns the number of sectors needed to hold count bytes.
func (db *DB) SectorsForBytes(count int64) int64 {
	return (count + db.sectorSize - 1) / db.sectorSize
}

// SectorsForRun yields the sectors spanned by run, starting with the sector
// holding its first byte.
func (db *DB) SectorsForRun(run ByteRun) iter.Seq[int64] {
	start := run.ImgOffset / db.sectorSize
	count := db.SectorsForBytes(run.length())
	return func(yield func(int64) bool) {
		for s := start; s < start+count; s++ {
			if !yield(s) {
				return
			}
		}
	}
}

// RunForSector returns the run covering count sectors starting at sector n.
func (db *DB) RunForSector(n, count int64) ByteRun {
	r := New(n*db.sectorSize, count*db.sectorSize)
	r.SectorSize = db.sectorSize
	return r
}

// RunsForSectors converts ascending sector numbers into runs, merging
// consecutive sectors.
func (db *DB) RunsForSectors(sectors []int64) []ByteRun {
	runs := make([]ByteRun, len(sectors))
	for i, s := range sectors {
		runs[i] = db.RunForSector(s, 1)
	}
	return CombineRuns(runs)
}

// AddSectors adds the given sectors as combined runs.
func (db *DB) AddSectors(sectors []int64) error {
	return db.AddRuns(db.RunsForSectors(sectors))
}

// SectorsNotInDB lazily yields the sectors of run that no stored run holds.
func (db *DB) SectorsNotInDB(run ByteRun) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for s := range db.SectorsForRun(run) {
			if _, ok := db.IntersectsSector(s); ok {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Report writes the sector size, every run ordered by image offset, and
// the entry count.
func (db *DB) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "sectorsize: %d\n", db.sectorSize); err != nil {
		return err
	}
	for _, idx := range db.byOffset {
		r := db.runs[idx]
		if _, err := fmt.Fprintf(w, "   [@%8d ; %8d]\n", r.ImgOffset, r.Len); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total entries in database: %d\n\n", len(db.runs))
	return err
}
