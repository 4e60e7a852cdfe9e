package bus

import (
	"fmt"
	"strings"
)

// matcher is a precompiled topic pattern. Patterns are dot-segmented;
// the segment "*" matches exactly one arbitrary segment, and a pattern
// consisting solely of "*" matches every topic regardless of segment
// count. Matching is case-sensitive.
type matcher struct {
	matchAll bool
	segments []patternSegment
}

type patternSegment struct {
	literal  string
	wildcard bool
}

// compilePattern parses a pattern once at subscribe time so Publish never
// parses strings.
func compilePattern(pattern string) (*matcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern must not be empty")
	}
	if pattern == "*" {
		return &matcher{matchAll: true}, nil
	}

	parts := strings.Split(pattern, ".")
	segments := make([]patternSegment, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("pattern %q has an empty segment", pattern)
		}
		segments[i] = patternSegment{literal: part, wildcard: part == "*"}
	}
	return &matcher{segments: segments}, nil
}

// matches reports whether the compiled pattern matches the topic.
func (m *matcher) matches(topic string) bool {
	if m.matchAll {
		return true
	}

	rest := topic
	for i, seg := range m.segments {
		var part string
		if idx := strings.IndexByte(rest, '.'); idx >= 0 {
			part, rest = rest[:idx], rest[idx+1:]
		} else {
			part, rest = rest, ""
		}
		// Segment counts must match exactly: a short topic leaves an
		// empty part, a long topic leaves a non-empty rest at the end.
		if part == "" {
			return false
		}
		if !seg.wildcard && seg.literal != part {
			return false
		}
		if i == len(m.segments)-1 {
			return rest == ""
		}
	}
	return false
}
