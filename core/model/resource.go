package model

import (
	"fmt"
	"strings"
)

// ResourceType identifies the kind of emergency resource a station holds.
type ResourceType int

const (
	ResourceMedical ResourceType = iota
	ResourcePolice
	ResourceFire
	ResourceRescue
	ResourceUtility
)

// ResourceTypes lists every known resource type in declaration order.
var ResourceTypes = []ResourceType{
	ResourceMedical,
	ResourcePolice,
	ResourceFire,
	ResourceRescue,
	ResourceUtility,
}

// String returns a human-readable representation of the resource type.
func (t ResourceType) String() string {
	switch t {
	case ResourceMedical:
		return "Medical"
	case ResourcePolice:
		return "Police"
	case ResourceFire:
		return "Fire"
	case ResourceRescue:
		return "Rescue"
	case ResourceUtility:
		return "Utility"
	default:
		return "unknown"
	}
}

// MarshalText renders the type name, so JSON objects and map keys carry
// "Medical" rather than an enum ordinal.
func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name produced by MarshalText or by the feed.
func (t *ResourceType) UnmarshalText(b []byte) error {
	parsed, ok := ResourceTypeFromString(string(b))
	if !ok {
		return fmt.Errorf("unknown resource type %q", string(b))
	}
	*t = parsed
	return nil
}

// ResourceTypeFromString parses a resource type name. Matching is
// case-insensitive because feed payloads are not consistent about casing.
func ResourceTypeFromString(s string) (ResourceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medical", "ambulance":
		return ResourceMedical, true
	case "police":
		return ResourcePolice, true
	case "fire":
		return ResourceFire, true
	case "rescue":
		return ResourceRescue, true
	case "utility":
		return ResourceUtility, true
	default:
		return 0, false
	}
}
