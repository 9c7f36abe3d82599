// Package pcap opens the live or offline frame sources the capture pipeline reads.
package pcap

import (
	"NetSpike/internal/config"
	"fmt"
	"log"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// readTimeout bounds each live read so the producer notices cancellation.
const readTimeout = 250 * time.Millisecond

// Source is an open capture handle. It satisfies gopacket.PacketDataSource.
type Source struct {
	*pcap.Handle
	name string
}

// OpenOffline opens a capture file for replay.
func OpenOffline(filePath string) (*Source, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file %s: %w", filePath, err)
	}
	return &Source{Handle: handle, name: filePath}, nil
}

// OpenLive opens iface for capture with the configured snapshot length,
// promiscuous mode and BPF filter.
func OpenLive(iface string, cfg config.CaptureConfig) (*Source, error) {
	handle, err := pcap.OpenLive(iface, cfg.SnapshotLen, cfg.Promiscuous, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open interface %s: %w", iface, err)
	}
	s := &Source{Handle: handle, name: iface}
	if err := s.setFilter(cfg.BPFFilter); err != nil {
		handle.Close()
		return nil, err
	}
	return s, nil
}

// Open picks the capture file when one is configured and the interface
// otherwise. An empty interface selects the "any" pseudo-device.
func Open(cfg config.CaptureConfig) (*Source, error) {
	if cfg.ReadFile != "" {
		s, err := OpenOffline(cfg.ReadFile)
		if err != nil {
			return nil, err
		}
		if err := s.setFilter(cfg.BPFFilter); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	iface := cfg.Interface
	if iface == "" {
		iface = "any"
	}
	return OpenLive(iface, cfg)
}

func (s *Source) setFilter(expr string) error {
	if expr == "" {
		return nil
	}
	if err := s.SetBPFFilter(expr); err != nil {
		return fmt.Errorf("invalid bpf filter %q: %w", expr, err)
	}
	log.Printf("Applied BPF filter %q on %s", expr, s.name)
	return nil
}

// Name returns the interface name or file path.
func (s *Source) Name() string { return s.name }

// LinkType returns the link layer of the captured frames.
func (s *Source) LinkType() layers.LinkType { return s.Handle.LinkType() }

// Device describes one capturable interface.
type Device struct {
	Name        string
	Description string
	Addresses   []string
}

// ListDevices returns every interface libpcap can capture on.
func ListDevices() ([]Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	devices := make([]Device, 0, len(ifs))
	for _, ifc := range ifs {
		d := Device{Name: ifc.Name, Description: ifc.Description}
		for _, addr := range ifc.Addresses {
			d.Addresses = append(d.Addresses, addr.IP.String())
		}
		devices = append(devices, d)
	}
	return devices, nil
}
