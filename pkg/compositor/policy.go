package compositor

import (
	"fmt"
	"strings"
)

// ScalingPolicy controls how a source image is placed inside a target rectangle.
type ScalingPolicy int

// Scaling policies.
const (
	Automatic  ScalingPolicy = iota // Aspect fit, centered
	Scaled                          // Stretch to the rectangle
	Centered                        // Native size, centered, clipped
	Tiled                           // Native size, repeated from the top-left
	Zoomed                          // Aspect fit, centered
	ZoomedFill                      // Aspect fill, centered crop
)

// String returns the UI label of a ScalingPolicy.
func (p ScalingPolicy) String() string {
	switch p {
	case Automatic:
		return "Automatic"
	case Scaled:
		return "Scaled"
	case Centered:
		return "Centered"
	case Tiled:
		return "Tiled"
	case Zoomed:
		return "Zoomed"
	case ZoomedFill:
		return "Zoomed Fill"
	default:
		return "Unknown"
	}
}

// ParsePolicy maps a UI label back to its policy. Matching ignores case,
// spaces, dashes and underscores. Unknown labels map to Automatic.
func ParsePolicy(label string) ScalingPolicy {
	p, ok := lookupPolicy(label)
	if !ok {
		return Automatic
	}
	return p
}

// ParsePolicyStrict is ParsePolicy that reports unknown labels.
func ParsePolicyStrict(label string) (ScalingPolicy, error) {
	p, ok := lookupPolicy(label)
	if !ok {
		return Automatic, fmt.Errorf("unknown scaling mode %q", label)
	}
	return p, nil
}

func lookupPolicy(label string) (ScalingPolicy, bool) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(label))
	for _, p := range Policies() {
		if strings.ReplaceAll(strings.ToLower(p.String()), " ", "") == key {
			return p, true
		}
	}
	return Automatic, false
}

// Policies returns every policy in UI order.
func Policies() []ScalingPolicy {
	return []ScalingPolicy{Automatic, Scaled, Centered, Tiled, Zoomed, ZoomedFill}
}

// GetPolicies returns every policy as a fmt.Stringer, for option lists.
func GetPolicies() []fmt.Stringer {
	policies := Policies()
	stringers := make([]fmt.Stringer, len(policies))
	for i, p := range policies {
		stringers[i] = p
	}
	return stringers
}
