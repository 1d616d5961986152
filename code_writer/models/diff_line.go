package models

// DiffKind classifies one rendered diff row.
type DiffKind int

const (
	Unchanged DiffKind = iota
	Added
	Removed
	Collapsed
)

func (k DiffKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Collapsed:
		return "collapsed"
	default:
		return "unchanged"
	}
}

// DiffLine is a single row of a line diff. Collapsed rows carry the number of hidden
// unchanged lines in Count and have no Text.
type DiffLine struct {
	Kind  DiffKind
	Text  string
	Count int
}
