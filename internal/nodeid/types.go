// internal/nodeid/types.go
package nodeid

// OutputMember is the member name that refers to a section's output.
const OutputMember = "output"

// MaxDepth is the number of segments an address may have.
const MaxDepth = 2

// PathSegment represents a single component of an address path.
type PathSegment struct {
	Name string
}

// NewPathSegment creates a new path segment.
func NewPathSegment(name string) PathSegment {
	return PathSegment{Name: name}
}

// Address is the structured representation of an entry or section member.
type Address struct {
	Path []PathSegment
}

// New builds an address from already validated segment names.
func New(names ...string) *Address {
	addr := &Address{Path: make([]PathSegment, 0, len(names))}
	for _, n := range names {
		addr.Path = append(addr.Path, NewPathSegment(n))
	}
	return addr
}
