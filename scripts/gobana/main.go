package main

import (
	"NetSpike/internal/snapshot"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/docker/go-units"
)

func main() {
	top := flag.Int("top", 20, "Number of flows to print, 0 for all")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go [-top 20] <flows.gob>")
		os.Exit(1)
	}

	flows, err := snapshot.ReadGob(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read flows: %v", err)
	}

	var total uint64
	for _, f := range flows {
		total += f.ByteCount
	}
	fmt.Printf("Decoded %d flows, %s in total:\n", len(flows), units.BytesSize(float64(total)))

	if *top > 0 && len(flows) > *top {
		flows = flows[:*top]
	}
	for i, f := range flows {
		fmt.Printf("%3d. %-60s %10s %8d pkts\n", i+1, f.Key, units.BytesSize(float64(f.ByteCount)), f.PacketCount)
	}
}
