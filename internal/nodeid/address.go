// internal/nodeid/address.go
package nodeid

import (
	"reflect"
	"strings"
)

// String serializes the Address into its canonical path string representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}

	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
	}

	return sb.String()
}

// Equal checks for deep equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return reflect.DeepEqual(a.Path, other.Path)
}

// Entry returns the name of the top-level entry the address points into.
func (a *Address) Entry() string {
	if a == nil || len(a.Path) == 0 {
		return ""
	}
	return a.Path[0].Name
}

// Member returns the section member name, or "" for a top-level entry.
func (a *Address) Member() string {
	if a == nil || len(a.Path) < 2 {
		return ""
	}
	return a.Path[1].Name
}

// IsOutput reports whether the address names a section's output.
func (a *Address) IsOutput() bool {
	return a.Member() == OutputMember
}

// Column returns the result-table key for the address.
func (a *Address) Column() string {
	if a == nil {
		return ""
	}
	if a.IsOutput() {
		return a.Entry()
	}

	names := make([]string, len(a.Path))
	for i, segment := range a.Path {
		names[i] = segment.Name
	}
	return strings.Join(names, "_")
}
