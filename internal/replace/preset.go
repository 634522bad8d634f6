package replace

import (
	"fmt"
	"sort"
)

// presets are ready-made rule sets for common recolouring jobs.
var presets = map[string]RuleSet{
	"logo-recolor": {
		{Source: "#E8431C", Target: "#0584F6", Tolerance: 35},
		{Source: "#F9F2ED", Target: "#D9F3FF", Tolerance: 1},
	},
	"icon-recolor": {
		{Source: "#3A78FC", Target: "#FF0000", Tolerance: 30},
	},
	"remove-background": {
		{Source: "#EEAA23", Target: "transparent", Tolerance: 20},
	},
}

// Preset returns a copy of the named rule set.
func Preset(name string) (RuleSet, error) {
	rs, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return rs.Clone(), nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
