package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kioskagent/catalog"
	"kioskagent/client"
	"kioskagent/config"
	"kioskagent/overlay"
	"kioskagent/player"
)

func main() {
	// Load environment
	_ = godotenv.Load()

	serverURL := flag.String("url", config.GetEnvOrDefault("SERVER_URL", "http://localhost:8080"), "Kiosk daemon URL")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	view := client.LogView{}
	driver := player.NewClockDriver(nil, 0)
	engine := player.NewEngine(driver)
	driver.Bind(engine)

	zones := overlay.NewAllocator(config.Zones, config.ZonePreferences, view)
	d := client.New(*serverURL, engine, zones, view)

	cat := fetchManifest(ctx, d)
	if cat == nil {
		return
	}

	driver.SetDurations(clipDurations(cat))
	engine.Start(catalog.Paths(cat.IdleLoops))
	log.Printf("🖥  Display client up: %d idle loop(s), %d bridge(s)",
		len(cat.IdleLoops), len(cat.Bridges))

	d.Run(ctx)
}

// fetchManifest retries until the daemon answers or the context is
// canceled; the display is useless without a catalog.
func fetchManifest(ctx context.Context, d *client.Display) *catalog.Catalog {
	delay := config.ReconnectBase
	for {
		cat, err := d.FetchManifest(ctx)
		if err == nil {
			return cat
		}
		log.Printf("⚠️  Manifest fetch failed: %v (retrying in %s)", err, delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > config.ReconnectMax {
			delay = config.ReconnectMax
		}
	}
}

// clipDurations flattens every catalog category into a path → duration map
// for the simulated playback clock.
func clipDurations(cat *catalog.Catalog) map[string]float64 {
	durations := make(map[string]float64)
	add := func(clips []catalog.ClipInfo) {
		for _, c := range clips {
			durations[c.Path] = c.Duration
		}
	}
	add(cat.IdleLoops)
	add(cat.Interrupts)
	add(cat.Utility)
	add(cat.Actions)
	for _, b := range cat.Bridges {
		durations[b.Path] = b.Duration
	}
	return durations
}
