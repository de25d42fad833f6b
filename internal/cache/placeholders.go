package cache

import "fmt"

// Generic labels used to pad answer options when the cache cannot supply
// enough real distractors. Never used as question targets.
var placeholderNames = []string{
	"Common Fern",
	"Wild Aster",
	"Meadow Grass",
	"Field Clover",
	"Garden Sage",
	"River Reed",
	"Mountain Moss",
	"Desert Sedge",
}

// PlaceholderNames returns n generic plant labels, none of which appear in
// exclude. Suffixes are appended once the base list runs out.
func PlaceholderNames(n int, exclude map[string]bool) []string {
	var out []string
	suffix := 0
	for len(out) < n {
		for _, base := range placeholderNames {
			if len(out) >= n {
				break
			}
			name := base
			if suffix > 0 {
				name = fmt.Sprintf("%s %d", base, suffix+1)
			}
			if exclude[name] {
				continue
			}
			exclude[name] = true
			out = append(out, name)
		}
		suffix++
	}
	return out
}
