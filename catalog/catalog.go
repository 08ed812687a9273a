package catalog

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"kioskagent/config"
)

// ClipInfo describes one playable file. Immutable once scanned.
type ClipInfo struct {
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Category string  `json:"category"`
	Duration float64 `json:"duration,omitempty"`
}

// BridgeClip is a transition clip whose filename encodes its endpoints
// as <from>_to_<to>[_suffix].
type BridgeClip struct {
	ClipInfo
	From string `json:"from"`
	To   string `json:"to"`
}

// Catalog is a fixed snapshot of the clip library, rebuilt wholesale on
// each scan. Read-only to consumers.
type Catalog struct {
	IdleLoops  []ClipInfo   `json:"idle_loops"`
	Bridges    []BridgeClip `json:"bridges"`
	Interrupts []ClipInfo   `json:"interrupts"`
	Utility    []ClipInfo   `json:"utility"`
	Actions    []ClipInfo   `json:"actions"`
}

// DurationProber reports a clip's duration in seconds. Injectable so scans
// stay fast in tests and on machines without ffprobe.
type DurationProber func(path string) (float64, error)

// Scanner builds Catalog snapshots from a media directory.
type Scanner struct {
	MediaDir string
	Probe    DurationProber
}

// NewScanner creates a scanner with the ffprobe-backed prober.
func NewScanner(mediaDir string) *Scanner {
	return &Scanner{MediaDir: mediaDir, Probe: ProbeDuration}
}

var playableExts = map[string]bool{".mp4": true, ".webm": true}

// Scan enumerates every category directory and returns a fresh snapshot.
// A missing directory yields an empty category, not an error.
func (s *Scanner) Scan() *Catalog {
	cat := &Catalog{}

	cat.IdleLoops = s.scanCategory(config.IdleLoopsDir)
	cat.Interrupts = s.scanCategory(config.InterruptsDir)
	cat.Utility = s.scanCategory(config.UtilityDir)
	cat.Actions = s.scanCategory(config.ActionsDir)

	for _, clip := range s.scanCategory(config.BridgesDir) {
		from, to, ok := parseBridgeName(clip.Filename)
		if !ok {
			log.Printf("⚠️  Skipping bridge without %q infix: %s", config.BridgeInfix, clip.Filename)
			continue
		}
		cat.Bridges = append(cat.Bridges, BridgeClip{ClipInfo: clip, From: from, To: to})
	}

	return cat
}

// scanCategory lists playable files in one category directory, sorted
// lexicographically. The sort order is the tie-break for ambiguous bridge
// matches and keeps manifest responses deterministic.
func (s *Scanner) scanCategory(category string) []ClipInfo {
	dir := filepath.Join(s.MediaDir, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("⚠️  Clip directory unavailable, skipping: %s", dir)
		return nil
	}

	clips := make([]ClipInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !playableExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		clip := ClipInfo{
			Path:     filepath.Join(dir, name),
			Filename: name,
			Category: category,
		}
		if s.Probe != nil {
			dur, err := s.Probe(clip.Path)
			if err != nil {
				log.Printf("⚠️  Probe failed for %s: %v", name, err)
			} else {
				clip.Duration = dur
			}
		}
		clips = append(clips, clip)
	}

	sort.Slice(clips, func(i, j int) bool { return clips[i].Filename < clips[j].Filename })
	return clips
}

// parseBridgeName splits a bridge filename at the first "_to_" infix.
func parseBridgeName(filename string) (from, to string, ok bool) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	idx := strings.Index(base, config.BridgeInfix)
	if idx < 0 {
		return "", "", false
	}
	return base[:idx], base[idx+len(config.BridgeInfix):], true
}

// ProbeDuration reads a clip's container duration via ffprobe.
func ProbeDuration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, err
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(probe.Format.Duration, 64)
}
