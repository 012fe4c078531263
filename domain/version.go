package domain

import "fmt"

// Version orders persisted snapshots of an aggregate. Every save inserts a
// new row carrying a version strictly greater than the one it was loaded
// from; loads pick the numerically greatest tuple.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// InitialVersion is assigned to freshly seeded aggregates.
var InitialVersion = Version{Major: 1, Minor: 1}

func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// BumpMinor advances the minor component in place. Every mutation that
// reports a changed aggregate must bump before saving.
func (v *Version) BumpMinor() {
	v.Minor++
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
