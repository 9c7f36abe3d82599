package main

import (
	"NetSpike/internal/alerter"
	"NetSpike/internal/api"
	"NetSpike/internal/attribution"
	"NetSpike/internal/config"
	"NetSpike/internal/engine/manager"
	"NetSpike/internal/engine/protocol"
	"NetSpike/internal/factory"
	"NetSpike/internal/feed"
	"NetSpike/internal/limits"
	"NetSpike/internal/notification"
	"NetSpike/internal/probe"
	"NetSpike/internal/probe/persistent"
	"NetSpike/internal/snapshot"
	"NetSpike/pkg/pcap"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	iface := flag.String("iface", "", "Interface to capture from (overrides capture.interface).")
	readFile := flag.String("read", "", "Capture file to replay instead of a live interface.")
	list := flag.Bool("list", false, "List capturable interfaces and exit.")
	flag.Parse()

	if *list {
		listDevices()
		return
	}

	log.Println("Starting netspike...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *iface != "" {
		cfg.Capture.Interface = *iface
	}
	if *readFile != "" {
		cfg.Capture.ReadFile = *readFile
	}
	log.Println("Configuration loaded successfully.")

	// 2. Cap our own resource usage
	free, err := limits.Apply(os.Getpid(), cfg.Limits)
	if err != nil {
		log.Fatalf("Failed to apply resource limits: %v", err)
	}
	defer free()

	// 3. Open the frame source
	source, err := pcap.Open(cfg.Capture)
	if err != nil {
		log.Fatalf("Failed to open capture source: %v", err)
	}
	defer source.Close()
	log.Printf("Capturing from %s (link type %s).", source.Name(), source.LinkType())

	// 4. Build the producer
	classifier := protocol.NewClassifier(
		protocol.WithLinkType(source.LinkType()),
		protocol.WithPayloadSniffing(cfg.Classifier.SniffPayload),
	)
	var cache *attribution.Cache
	if cfg.Attribution.Enabled {
		cache = attribution.NewCache(attribution.NewSystemSource())
	}
	recorder := persistent.NewRecorder(cfg.Persistence, source.LinkType())
	if cfg.Persistence.StartActive {
		if err := recorder.Start(); err != nil {
			log.Printf("Failed to start recording, persistence stays off: %v", err)
		}
	}
	defer recorder.Stop()

	queue := feed.NewQueue()
	pipeline := probe.NewPipeline(source, classifier, probe.NewNoiseFilter(cfg.Filter), queue, probe.Options{
		Cache:        cache,
		RefreshEvery: config.Duration(cfg.Attribution.RefreshInterval),
		Sink:         recorder,
	})

	// 5. Build the consumer and its observers
	mgr := manager.NewManager(&cfg.Monitor, queue, manager.WithRecorder(recorder))
	if cfg.NATS.Enabled {
		pub, err := probe.NewPublisher(cfg.NATS)
		if err != nil {
			log.Printf("Failed to connect to NATS, record mirroring disabled: %v", err)
		} else {
			mgr.AddObserver(pub)
			defer pub.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The consumer outlives the signal so the final export can still read it.
	mgrCtx, stopManager := context.WithCancel(context.Background())
	defer stopManager()
	managerDone := make(chan struct{})
	go func() {
		mgr.Run(mgrCtx)
		close(managerDone)
	}()

	// 6. Flow export
	writers, err := factory.CreateWriters(cfg.Export)
	if err != nil {
		log.Fatalf("Failed to create snapshot writers: %v", err)
	}
	exporter := snapshot.NewExporter(writers, mgr.FlowSnapshot)
	if err := exporter.Start(); err != nil {
		log.Fatalf("Failed to start exporter: %v", err)
	}

	// 7. Alerting
	var alert *alerter.Alerter
	if cfg.Alerter.Enabled {
		alert, err = alerter.NewAlerter(&cfg.Alerter, mgr.Metrics, notification.NewEmailNotifier(cfg.SMTP))
		if err != nil {
			log.Fatalf("Failed to create alerter: %v", err)
		}
		go alert.Start()
	}

	// 8. HTTP view/control API and gRPC health
	var httpServer *http.Server
	if cfg.API.Enabled {
		httpServer = &http.Server{Addr: cfg.API.ListenAddr, Handler: api.NewServer(mgr, pipeline)}
		go func() {
			log.Printf("HTTP API server starting on %s", cfg.API.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}
	var health *api.HealthServer
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.ListenAddr)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.GRPC.ListenAddr, err)
		}
		health = api.NewHealthServer(pipeline.Running, time.Second)
		go health.Watch(ctx)
		go func() {
			if err := health.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
	}

	// 9. Start capturing
	go func() {
		if err := pipeline.Run(ctx); err != nil {
			log.Printf("Capture ended: %v", err)
		} else {
			c := pipeline.Counters()
			log.Printf("Capture ended after %d frames (%d delivered, %d noise, %d malformed).",
				c.Frames, c.Delivered, c.Noise, c.Malformed)
		}
		if cache != nil {
			refreshes, failures := cache.Stats()
			log.Printf("Attribution: %d refreshes, %d failed, %d ports known.", refreshes, failures, cache.Len())
		}
	}()

	reportStatus(ctx, mgr, config.Duration(cfg.Monitor.StatusInterval))

	// 10. Graceful shutdown
	log.Println("Shutdown signal received, stopping netspike...")
	if alert != nil {
		alert.Stop()
	}
	exporter.Stop(true)
	if health != nil {
		health.Stop()
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		httpServer.Shutdown(shutdownCtx)
		cancel()
	}
	stopManager()
	<-managerDone
	log.Println("Shutdown complete.")
}

// reportStatus logs the status line every interval until ctx is done.
func reportStatus(ctx context.Context, mgr *manager.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reqCtx, cancel := context.WithTimeout(ctx, every)
			v, err := mgr.CurrentView(reqCtx)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("Failed to read view: %v", err)
				}
				continue
			}
			log.Println(v.StatusLine())
		}
	}
}

func listDevices() {
	devices, err := pcap.ListDevices()
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, d := range devices {
		fmt.Printf("%-16s %-40s %s\n", d.Name, d.Description, strings.Join(d.Addresses, ", "))
	}
}
