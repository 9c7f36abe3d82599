package main

import (
	"NetSpike/internal/config"
	"NetSpike/internal/engine/manager"
	"NetSpike/internal/model"
	"NetSpike/internal/probe"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	url := flag.String("url", "", "NATS server URL (overrides nats.url).")
	subject := flag.String("subject", "", "Subject to follow (overrides nats.subject).")
	filter := flag.String("filter", "", "Only print records whose summary or app contains this text.")
	details := flag.Bool("details", false, "Print the layer breakdown of every record.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}
	if *url != "" {
		cfg.NATS.URL = *url
	}
	if *subject != "" {
		cfg.NATS.Subject = *subject
	}

	log.Println("Starting netspike-tail...")

	sub, err := probe.NewSubscriber(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(rec *model.PacketRecord) {
		if !manager.MatchRecord(rec, *filter) {
			return
		}
		fmt.Printf("%s [%s] %s (%d bytes)\n", rec.TimeLabel, rec.App, rec.Summary, rec.Length)
		if *details {
			fmt.Println(rec.Details)
		}
	}
	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
