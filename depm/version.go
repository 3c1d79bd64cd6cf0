package depm

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed semantic version of the form `major.minor.patch`.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses a version string of the form `x.y.z`.
func ParseVersion(text string) (*Version, error) {
	fields := strings.Split(text, ".")
	if len(fields) != 3 {
		return nil, fmt.Errorf("malformed version `%s`: expected `major.minor.patch`", text)
	}

	var nums [3]int
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed version `%s`: `%s` is not a version number", text, field)
		}

		nums[i] = n
	}

	return &Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less returns whether v orders strictly before o.
func (v *Version) Less(o *Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}

	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}

	return v.Patch < o.Patch
}

// -----------------------------------------------------------------------------

// VersionSpec is a dependency version requirement: either an exact version
// `x.y.z` or a caret spec `^x.y.z` accepting any version with the same major
// that is not below the base.
type VersionSpec struct {
	Base  *Version
	Caret bool
}

// ParseVersionSpec parses a version spec string.
func ParseVersionSpec(text string) (*VersionSpec, error) {
	caret := strings.HasPrefix(text, "^")

	base, err := ParseVersion(strings.TrimPrefix(text, "^"))
	if err != nil {
		return nil, err
	}

	return &VersionSpec{Base: base, Caret: caret}, nil
}

// Matches returns whether a concrete version satisfies the spec.
func (vs *VersionSpec) Matches(v *Version) bool {
	if vs.Caret {
		return v.Major == vs.Base.Major && !v.Less(vs.Base)
	}

	return *v == *vs.Base
}

func (vs *VersionSpec) String() string {
	if vs.Caret {
		return "^" + vs.Base.String()
	}

	return vs.Base.String()
}
