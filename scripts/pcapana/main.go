package main

import (
	"NetSpike/internal/engine/protocol"
	"NetSpike/internal/model"
	"NetSpike/pkg/pcap"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	count := flag.Int("n", 5, "Number of frames to dissect")
	hex := flag.Bool("hex", true, "Print the hex dump of each frame")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/pcapana/main.go [-n 5] [-hex=false] <path_to_pcap_file>")
		os.Exit(1)
	}

	source, err := pcap.OpenOffline(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()

	classifier := protocol.NewClassifier(protocol.WithLinkType(source.LinkType()), protocol.WithPayloadSniffing(true))

	for i := 0; i < *count; {
		data, _, err := source.ReadPacketData()
		if err != nil {
			break
		}
		i++
		rec, ok := classifier.Classify(data, model.UnknownApp)
		if !ok {
			fmt.Printf("==== Frame %d: not decodable (%d bytes) ====\n", i, len(data))
			continue
		}
		fmt.Printf("==== Frame %d: %s ====\n", i, rec.Summary)
		fmt.Println(rec.Details)
		if *hex {
			fmt.Println(rec.HexDump)
		}
		fmt.Println()
	}
}
