// Package framegen builds well-formed link-layer frames for replay files and tests.
package framegen

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	SrcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	DstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

var serializeOpts = gopacket.SerializeOptions{
	ComputeChecksums: true,
	FixLengths:       true,
}

type networkLayer interface {
	gopacket.SerializableLayer
	gopacket.NetworkLayer
}

func parseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic(fmt.Sprintf("framegen: bad address %q", s))
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

// network builds the IP header for src/dst, choosing the version from src.
func network(src, dst string, proto layers.IPProtocol) (layers.EthernetType, networkLayer) {
	s, d := parseIP(src), parseIP(dst)
	if len(s) == net.IPv4len {
		return layers.EthernetTypeIPv4, &layers.IPv4{
			Version:  4,
			TTL:      64,
			Id:       0x1234,
			Protocol: proto,
			SrcIP:    s,
			DstIP:    d,
		}
	}
	return layers.EthernetTypeIPv6, &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: proto,
		SrcIP:      s,
		DstIP:      d,
	}
}

func serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, ls...); err != nil {
		panic(fmt.Sprintf("framegen: serialize: %v", err))
	}
	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out
}

func ethernet(et layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{SrcMAC: SrcMAC, DstMAC: DstMAC, EthernetType: et}
}

// TCP builds an Ethernet frame carrying a TCP segment. The IP version
// follows the source address.
func TCP(src, dst string, sport, dport uint16, payload []byte) []byte {
	et, ip := network(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		Seq:     1000,
		Ack:     2000,
		ACK:     true,
		PSH:     len(payload) > 0,
		Window:  14600,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		panic(err)
	}
	return serialize(ethernet(et), ip, tcp, gopacket.Payload(payload))
}

// UDP builds an Ethernet frame carrying a UDP datagram.
func UDP(src, dst string, sport, dport uint16, payload []byte) []byte {
	et, ip := network(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(sport),
		DstPort: layers.UDPPort(dport),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		panic(err)
	}
	return serialize(ethernet(et), ip, udp, gopacket.Payload(payload))
}

// ICMPv4Echo builds an echo request.
func ICMPv4Echo(src, dst string) []byte {
	et, ip := network(src, dst, layers.IPProtocolICMPv4)
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       1,
		Seq:      1,
	}
	return serialize(ethernet(et), ip, icmp, gopacket.Payload([]byte("ping")))
}

// ICMPv6Echo builds an echo request over IPv6.
func ICMPv6Echo(src, dst string) []byte {
	et, ip := network(src, dst, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{
		TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0),
	}
	if err := icmp.SetNetworkLayerForChecksum(ip); err != nil {
		panic(err)
	}
	echo := &layers.ICMPv6Echo{Identifier: 1, SeqNumber: 1}
	return serialize(ethernet(et), ip, icmp, echo)
}

// ARPRequest builds a who-has request from senderIP for targetIP.
func ARPRequest(senderIP, targetIP string) []byte {
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   SrcMAC,
		SourceProtAddress: parseIP(senderIP),
		DstHwAddress:      net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstProtAddress:    parseIP(targetIP),
	}
	eth := &layers.Ethernet{
		SrcMAC:       SrcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	return serialize(eth, arp)
}

// LinuxSLL re-frames an Ethernet frame behind a Linux cooked-capture header,
// the framing "any" device captures produce.
func LinuxSLL(ethernetFrame []byte) []byte {
	if len(ethernetFrame) < 14 {
		panic("framegen: frame too short")
	}
	hdr := make([]byte, 16)
	binary.BigEndian.PutUint16(hdr[0:2], 4) // sent by us
	binary.BigEndian.PutUint16(hdr[2:4], 1) // ARPHRD_ETHER
	binary.BigEndian.PutUint16(hdr[4:6], 6)
	copy(hdr[6:12], ethernetFrame[6:12])
	copy(hdr[14:16], ethernetFrame[12:14])
	return append(hdr, ethernetFrame[14:]...)
}
