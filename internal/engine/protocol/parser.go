package protocol

import (
	"NetSpike/internal/model"
	"fmt"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

type networkKind int

const (
	networkNone networkKind = iota
	networkIPv4
	networkIPv6
	networkARP
)

type transportKind int

const (
	transportNone transportKind = iota
	transportTCP
	transportUDP
	transportICMPv4
	transportICMPv6
)

// Frame is one decoded link-layer frame. It owns its layer structs, so a Frame
// stays valid after the next call to Decode.
type Frame struct {
	data []byte

	linkType  gopacket.LayerType
	network   networkKind
	transport transportKind

	eth     layers.Ethernet
	sll     layers.LinuxSLL
	dot1q   layers.Dot1Q
	ip4     layers.IPv4
	ip6     layers.IPv6
	arp     layers.ARP
	tcp     layers.TCP
	udp     layers.UDP
	icmp4   layers.ICMPv4
	icmp6   layers.ICMPv6
	payload gopacket.Payload
}

// Classifier turns raw frames into PacketRecords.
type Classifier struct {
	first        gopacket.LayerType
	sniffPayload bool
	now          func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLinkType selects the link-layer decoder matching the capture source.
func WithLinkType(lt layers.LinkType) Option {
	return func(c *Classifier) {
		c.first = FirstLayer(lt)
	}
}

// WithPayloadSniffing lets payload heuristics upgrade generic TCP labels.
func WithPayloadSniffing(enabled bool) Option {
	return func(c *Classifier) {
		c.sniffPayload = enabled
	}
}

// WithClock replaces the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// NewClassifier creates an Ethernet classifier unless told otherwise.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		first: layers.LayerTypeEthernet,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FirstLayer maps a capture link type to the layer decoding starts with.
func FirstLayer(lt layers.LinkType) gopacket.LayerType {
	switch lt {
	case layers.LinkTypeLinuxSLL:
		return layers.LayerTypeLinuxSLL
	default:
		return layers.LayerTypeEthernet
	}
}

// Classify decodes and classifies a frame in one step.
func Classify(data []byte, app string) (*model.PacketRecord, bool) {
	return NewClassifier().Classify(data, app)
}

// Classify decodes data and builds its record. It reports false when the
// bytes are not a recognized link and network framing.
func (c *Classifier) Classify(data []byte, app string) (*model.PacketRecord, bool) {
	frame, ok := c.Decode(data)
	if !ok {
		return nil, false
	}
	return c.Record(frame, app), true
}

// Decode parses the link, network and transport headers of data.
func (c *Classifier) Decode(data []byte) (*Frame, bool) {
	f := &Frame{data: data}

	parser := gopacket.NewDecodingLayerParser(c.first,
		&f.eth, &f.sll, &f.dot1q,
		&f.ip4, &f.ip6, &f.arp,
		&f.tcp, &f.udp, &f.icmp4, &f.icmp6,
		&f.payload,
	)
	parser.IgnoreUnsupported = true

	decoded := make([]gopacket.LayerType, 0, 6)
	if err := parser.DecodeLayers(data, &decoded); err != nil {
		return nil, false
	}

	for _, lt := range decoded {
		switch lt {
		case layers.LayerTypeEthernet, layers.LayerTypeLinuxSLL:
			f.linkType = lt
		case layers.LayerTypeIPv4:
			f.network = networkIPv4
		case layers.LayerTypeIPv6:
			f.network = networkIPv6
		case layers.LayerTypeARP:
			f.network = networkARP
		case layers.LayerTypeTCP:
			f.transport = transportTCP
		case layers.LayerTypeUDP:
			f.transport = transportUDP
		case layers.LayerTypeICMPv4:
			f.transport = transportICMPv4
		case layers.LayerTypeICMPv6:
			f.transport = transportICMPv6
		}
	}

	if f.linkType == gopacket.LayerTypeZero || f.network == networkNone {
		return nil, false
	}
	return f, true
}

// Ports returns the transport source and destination ports, or 0/0 when the
// frame carries neither TCP nor UDP.
func (f *Frame) Ports() (src, dst uint16) {
	switch f.transport {
	case transportTCP:
		return uint16(f.tcp.SrcPort), uint16(f.tcp.DstPort)
	case transportUDP:
		return uint16(f.udp.SrcPort), uint16(f.udp.DstPort)
	}
	return 0, 0
}

// TransportPorts decodes data just far enough to return its ports.
func (c *Classifier) TransportPorts(data []byte) (src, dst uint16) {
	f, ok := c.Decode(data)
	if !ok {
		return 0, 0
	}
	return f.Ports()
}

// Record renders a decoded frame into a PacketRecord attributed to app.
func (c *Classifier) Record(f *Frame, app string) *model.PacketRecord {
	now := c.now()

	source, dest := "Unknown", "Unknown"
	label := "DATA"

	var details strings.Builder
	describeLink(f, &details)

	if s, d, ok := describeNetwork(f, &details); ok {
		source, dest = s, d
	}
	if l := transportLabel(f, c.sniffPayload); l != "" {
		label = l
	}
	describeTransport(f, &details)

	// ARP carries no transport header and always keeps its own label.
	if f.network == networkARP {
		label = "ARP"
	}

	return &model.PacketRecord{
		Timestamp: now,
		TimeLabel: now.Format("15:04:05"),
		Summary:   Summary(source, dest, label),
		Details:   details.String(),
		HexDump:   HexDump(f.data),
		App:       app,
		Source:    source,
		Dest:      dest,
		Protocol:  label,
		Length:    len(f.data),
	}
}

// Summary renders the fixed-width one-line summary.
func Summary(source, dest, label string) string {
	return fmt.Sprintf("%-15s -> %-15s | %s", source, dest, label)
}
