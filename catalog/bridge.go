package catalog

import "strings"

// matchesState reports whether a bridge endpoint field matches a behavioral
// state: lowercased equality, or a suffixed variant such as "show_right"
// matching SHOW.
func matchesState(field, state string) bool {
	f := strings.ToLower(field)
	s := strings.ToLower(state)
	return f == s || strings.HasPrefix(f, s+"_")
}

// FindBridge returns the first catalog-order bridge connecting from → to.
// When no dedicated bridge exists and from is not the default state, it
// retries toward the default state as a return-home fallback: an undirected
// exit reads better on screen than a hard cut.
func (c *Catalog) FindBridge(from, to, defaultState string) *BridgeClip {
	if b := c.findDirect(from, to); b != nil {
		return b
	}
	if from != defaultState && to != defaultState {
		return c.findDirect(from, defaultState)
	}
	return nil
}

func (c *Catalog) findDirect(from, to string) *BridgeClip {
	for i := range c.Bridges {
		b := &c.Bridges[i]
		if matchesState(b.From, from) && matchesState(b.To, to) {
			return b
		}
	}
	return nil
}

// StateClips returns the playback pool for a behavioral state: the idle
// loops for the default state, otherwise every action clip whose first
// underscore-delimited token equals the lowercased state. A non-empty
// actionPrefix substitutes a different token.
func (c *Catalog) StateClips(state, defaultState, actionPrefix string) []ClipInfo {
	if state == defaultState {
		return append([]ClipInfo(nil), c.IdleLoops...)
	}

	prefix := actionPrefix
	if prefix == "" {
		prefix = strings.ToLower(state)
	}

	var clips []ClipInfo
	for _, clip := range c.Actions {
		token := clip.Filename
		if idx := strings.IndexByte(token, '_'); idx >= 0 {
			token = token[:idx]
		} else if idx := strings.IndexByte(token, '.'); idx >= 0 {
			token = token[:idx]
		}
		if token == prefix {
			clips = append(clips, clip)
		}
	}
	return clips
}

// Paths extracts the media paths from a clip set.
func Paths(clips []ClipInfo) []string {
	paths := make([]string, len(clips))
	for i, c := range clips {
		paths[i] = c.Path
	}
	return paths
}
