package catalog

import "math/rand"

// Picker selects one clip path from a pool, avoiding the immediately
// preceding pick when the pool allows it. Injectable for deterministic tests.
type Picker func(pool []string, excluding string) string

// RandomPicker returns a Picker backed by the given source. For pools larger
// than one, the excluded clip is never selected.
func RandomPicker(r *rand.Rand) Picker {
	return func(pool []string, excluding string) string {
		switch len(pool) {
		case 0:
			return ""
		case 1:
			return pool[0]
		}

		candidates := pool
		if excluding != "" {
			filtered := make([]string, 0, len(pool))
			for _, p := range pool {
				if p != excluding {
					filtered = append(filtered, p)
				}
			}
			if len(filtered) > 0 {
				candidates = filtered
			}
		}
		return candidates[r.Intn(len(candidates))]
	}
}
