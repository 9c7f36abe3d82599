package main

import (
	"NetSpike/internal/config"
	"NetSpike/internal/engine/manager"
	"NetSpike/internal/engine/protocol"
	"NetSpike/internal/factory"
	"NetSpike/internal/feed"
	"NetSpike/internal/probe"
	"NetSpike/pkg/pcap"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-units"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	top := flag.Int("top", 20, "Number of flows to print")
	flag.Parse()

	// 1. Get pcap file path from command-line arguments
	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./cmd/pcap-analyzer/main.go [-config path] [-top 20] <path_to_pcap_file>")
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	// 2. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}

	// 3. Initialize modules. A replayed file has no live owners to attribute.
	source, err := pcap.OpenOffline(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer source.Close()

	queue := feed.NewQueue()
	classifier := protocol.NewClassifier(
		protocol.WithLinkType(source.LinkType()),
		protocol.WithPayloadSniffing(cfg.Classifier.SniffPayload),
	)
	pipeline := probe.NewPipeline(source, classifier, probe.NewNoiseFilter(cfg.Filter), queue, probe.Options{})
	mgr := manager.NewManager(&cfg.Monitor, queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	// 4. Replay the file
	log.Printf("Reading packets from '%s'...", pcapFilePath)
	start := time.Now()
	if err := pipeline.Run(ctx); err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	// 5. Wait for the consumer to apply everything, then report
	var view *manager.View
	for {
		view, err = mgr.CurrentView(ctx)
		if err != nil {
			log.Fatalf("Failed to read view: %v", err)
		}
		if view.Pending == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	c := pipeline.Counters()
	log.Printf("Replayed %d frames in %s: %d applied, %d noise, %d malformed.",
		c.Frames, time.Since(start).Round(time.Millisecond), c.Delivered, c.Noise, c.Malformed)
	fmt.Printf("Total: %s across %d flows\n", units.BytesSize(float64(view.TotalBytes)), len(view.Flows))

	flows := view.Flows
	if len(flows) > *top {
		flows = flows[:*top]
	}
	for i, f := range flows {
		fmt.Printf("%3d. %-60s %10s %8d pkts\n", i+1, f.Key, units.BytesSize(float64(f.ByteCount)), f.PacketCount)
	}

	// 6. Hand the final table to the configured writers
	writers, err := factory.CreateWriters(cfg.Export)
	if err != nil {
		log.Fatalf("Failed to create snapshot writers: %v", err)
	}
	snap, err := mgr.FlowSnapshot(ctx)
	if err != nil {
		log.Fatalf("Failed to take flow snapshot: %v", err)
	}
	for _, w := range writers {
		if err := w.Write(snap); err != nil {
			log.Printf("Writer %s failed: %v", w.Name(), err)
		}
	}
	log.Println("Analysis complete.")
}
