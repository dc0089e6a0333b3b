// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single segment of a path. Names follow HCL
// identifier characters, plus purely numeric names for labels like `1`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "-" || strings.HasPrefix(name, "-") {
		return false
	}
	return true
}

// ValidateName checks a single entry or member name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if !segmentRegex.MatchString(name) {
		return fmt.Errorf("invalid name format: %q", name)
	}
	if !isValidSegmentName(name) {
		return fmt.Errorf("invalid name: %q", name)
	}
	return nil
}

// Parse creates a new Address struct by parsing its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	segments := strings.Split(rawID, ".")
	if len(segments) > MaxDepth {
		return nil, fmt.Errorf("identifier %q has %d segments; at most %d are allowed", rawID, len(segments), MaxDepth)
	}

	addr := &Address{}
	for _, segmentStr := range segments {
		if segmentStr == "" {
			return nil, fmt.Errorf("identifier path contains empty segment")
		}
		if err := ValidateName(segmentStr); err != nil {
			return nil, fmt.Errorf("invalid path segment: %w", err)
		}
		addr.Path = append(addr.Path, NewPathSegment(segmentStr))
	}

	return addr, nil
}
