package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kioskagent/api"
	"kioskagent/catalog"
	"kioskagent/common"
	"kioskagent/config"
	"kioskagent/fsm"
	"kioskagent/hub"
	"kioskagent/orchestrator"
	kafkaingress "kioskagent/shared/kafka"
	"kioskagent/statestore"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	// Optional: pull down media from S3 before scanning
	syncMedia(cfg)

	scanner := catalog.NewScanner(cfg.MediaDir)
	machine := fsm.New(cfg.States, config.DefaultState)

	// The hub and the orchestrator reference each other; the closures only
	// fire once channels connect, after o is assigned.
	var o *orchestrator.Orchestrator
	h := hub.New(
		func(ch *hub.Channel, data []byte) { o.HandleInbound(ch, data) },
		func(ch *hub.Channel) { o.OnConnect(ch) },
	)
	o = orchestrator.New(machine, scanner, h)

	// Optional: Redis-backed state persistence
	if cfg.RedisAddr != "" {
		store, err := statestore.New(statestore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		})
		if err != nil {
			log.Printf("⚠️  Redis unavailable: %v (state persistence disabled)", err)
		} else {
			defer store.Close()
			o.Store = store
			o.RestoreState()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional: Kafka control ingress
	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafkaingress.NewConsumer(kafkaingress.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			Handler: o.HandleRaw,
		})
		if err != nil {
			log.Printf("⚠️  Kafka unavailable: %v (control ingress disabled)", err)
		} else {
			defer consumer.Close()
			if err := consumer.Start(ctx); err != nil {
				log.Printf("⚠️  Kafka consumer failed to start: %v", err)
			}
		}
	}

	r := api.NewRouter(o, h)
	addr := ":" + cfg.Port

	log.Printf("Starting kiosk daemon on %s", addr)
	log.Println("Endpoints available:")
	log.Println("  GET  /status")
	log.Println("  GET  /manifest")
	log.Println("  POST /event")
	log.Println("  POST /rescan")
	log.Println("  GET  /ws")

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// syncMedia mirrors the configured S3 prefix into the media directory,
// skipping files that already exist locally.
func syncMedia(cfg config.Config) {
	if cfg.S3Bucket == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s3c, err := common.NewS3(ctx, common.S3Config{
		Region:       cfg.S3Region,
		Profile:      cfg.S3Profile,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("⚠️  S3 client init failed: %v (media sync skipped)", err)
		return
	}

	synced, err := common.SyncMedia(ctx, s3c, cfg.S3Bucket, cfg.S3Prefix, cfg.MediaDir)
	if err != nil {
		log.Printf("⚠️  Media sync incomplete: %v (%d file(s) synced)", err, synced)
		return
	}
	log.Printf("✅ Media sync complete: %d new file(s)", synced)
}
