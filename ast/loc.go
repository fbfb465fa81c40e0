package ast

import "strconv"

// Loc is a source location.
type Loc struct {
	File string
	Line int
	Col  int
}

// IsValid reports whether l refers to an actual position.
func (l Loc) IsValid() bool { return l.Line > 0 }

func (l Loc) String() string {
	if !l.IsValid() {
		if l.File != "" {
			return l.File
		}

		return "<unknown>"
	}

	s := strconv.Itoa(l.Line)
	if l.Col > 0 {
		s += ":" + strconv.Itoa(l.Col)
	}

	if l.File != "" {
		return l.File + ":" + s
	}

	return s
}
