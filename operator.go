// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

// Operator describe the potential (binary) set operations available on an
// Apply.
type Operator int

const (
	OPunion        Operator = iota // Set union
	OPintersection                 // Set intersection
	OPdiff                         // Set difference
)

var opnames = [3]string{
	OPunion:        "union",
	OPintersection: "intersection",
	OPdiff:         "diff",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(opnames) {
		return "unknown"
	}
	return opnames[op]
}
