package main

import (
	"NetSpike/pkg/framegen"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var httpRequest = []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n")

var ssdpSearch = []byte("M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\n\r\n")

// frame draws one frame from the traffic mix.
func frame(r *rand.Rand) []byte {
	host := fmt.Sprintf("192.168.1.%d", 10+r.Intn(20))
	sport := uint16(32768 + r.Intn(28000))

	switch n := r.Intn(100); {
	case n < 40:
		payload := make([]byte, 100+r.Intn(1300))
		r.Read(payload)
		payload[0], payload[1] = 0x17, 0x03
		return framegen.TCP(host, "93.184.216.34", sport, 443, payload)
	case n < 55:
		return framegen.TCP(host, "93.184.216.34", sport, 80, httpRequest)
	case n < 70:
		return framegen.UDP(host, "192.168.1.1", sport, 53, make([]byte, 30+r.Intn(40)))
	case n < 78:
		return framegen.UDP(host, "239.255.255.250", sport, 1900, ssdpSearch)
	case n < 84:
		return framegen.UDP(host, "224.0.0.251", 5353, 5353, make([]byte, 60))
	case n < 90:
		return framegen.ARPRequest(host, "192.168.1.1")
	case n < 94:
		return framegen.ICMPv4Echo(host, "1.1.1.1")
	case n < 97:
		return framegen.ICMPv6Echo("fe80::1", "ff02::1")
	default:
		return framegen.TCP("2001:db8::10", "2001:db8::443", sport, 8443, make([]byte, 200+r.Intn(600)))
	}
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	rate := flag.Int("rate", 200, "Packets per second of capture time")
	sll := flag.Bool("sll", false, "Write Linux cooked-capture frames instead of Ethernet")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	if *rate <= 0 {
		log.Fatalf("Rate must be positive")
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	linkType := layers.LinkTypeEthernet
	if *sll {
		linkType = layers.LinkTypeLinuxSLL
	}
	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, linkType); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	r := rand.New(rand.NewSource(*seed))
	gap := time.Second / time.Duration(*rate)
	ts := time.Now()

	log.Printf("Generating %d packets into %s...", *packetCount, *outputFile)

	for i := 0; i < *packetCount; i++ {
		if (i+1)%100000 == 0 {
			log.Printf("Generated %d packets...", i+1)
		}

		data := frame(r)
		if *sll {
			data = framegen.LinuxSLL(data)
		}
		// Bursts every few seconds give the throughput graph a spike to inspect.
		if i%(*rate*5) < *rate/2 {
			ts = ts.Add(gap / 4)
		} else {
			ts = ts.Add(gap)
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := pcapWriter.WritePacket(ci, data); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets into %s.", *packetCount, *outputFile)
}
