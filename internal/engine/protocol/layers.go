package protocol

import (
	"bytes"
	"fmt"
	"net"
	"strings"

	"github.com/google/gopacket/layers"
)

var httpPrefixes = [][]byte{
	[]byte("GET "), []byte("POST "), []byte("PUT "), []byte("DELETE "),
	[]byte("HEAD "), []byte("OPTIONS "), []byte("PATCH "), []byte("HTTP/1."),
}

// tcpLabel applies the destination-port table, then optionally lets the
// payload upgrade a generic label. A well-known port always wins.
func tcpLabel(port uint16, payload []byte, sniff bool) string {
	switch port {
	case 80:
		return "HTTP"
	case 443:
		return "HTTPS"
	}
	if sniff {
		if len(payload) >= 2 && payload[0] == 0x16 && payload[1] == 0x03 {
			return "TLS"
		}
		for _, p := range httpPrefixes {
			if bytes.HasPrefix(payload, p) {
				return "HTTP"
			}
		}
	}
	return fmt.Sprintf("TCP:%d", port)
}

func udpLabel(port uint16) string {
	switch port {
	case 53:
		return "DNS"
	case 1900:
		return "SSDP"
	case 5353:
		return "MDNS"
	}
	return fmt.Sprintf("UDP:%d", port)
}

// transportLabel returns "" when the frame carries no transport header.
func transportLabel(f *Frame, sniff bool) string {
	switch f.transport {
	case transportTCP:
		return tcpLabel(uint16(f.tcp.DstPort), f.tcp.Payload, sniff)
	case transportUDP:
		return udpLabel(uint16(f.udp.DstPort))
	case transportICMPv4:
		return "ICMPv4"
	case transportICMPv6:
		return "ICMPv6"
	}
	return ""
}

func describeLink(f *Frame, b *strings.Builder) {
	b.WriteString("--- LINK LAYER ---\n")
	switch f.linkType {
	case layers.LayerTypeEthernet:
		fmt.Fprintf(b, "Protocol: Ethernet\nSource:   %s\nDest:     %s\nType:     %s\n",
			f.eth.SrcMAC, f.eth.DstMAC, f.eth.EthernetType)
	case layers.LayerTypeLinuxSLL:
		fmt.Fprintf(b, "Protocol: Linux cooked capture\nAddress:  %s\nPacket:   %s\nType:     %s\n",
			f.sll.Addr, f.sll.PacketType, f.sll.EthernetType)
	}
}

// describeNetwork writes the network section and returns the endpoint
// strings used in the summary.
func describeNetwork(f *Frame, b *strings.Builder) (src, dst string, ok bool) {
	b.WriteString("\n--- NETWORK LAYER ---\n")
	switch f.network {
	case networkIPv4:
		src, dst = f.ip4.SrcIP.String(), f.ip4.DstIP.String()
		fmt.Fprintf(b, "Protocol: IPv4\nSource:   %s\nDest:     %s\nTTL:      %d\nID:       %d\nNext:     %s\n",
			src, dst, f.ip4.TTL, f.ip4.Id, f.ip4.Protocol)
		return src, dst, true
	case networkIPv6:
		src, dst = f.ip6.SrcIP.String(), f.ip6.DstIP.String()
		fmt.Fprintf(b, "Protocol: IPv6\nSource:   %s\nDest:     %s\nHop lim:  %d\nFlow:     %d\nNext:     %s\n",
			src, dst, f.ip6.HopLimit, f.ip6.FlowLabel, f.ip6.NextHeader)
		return src, dst, true
	case networkARP:
		src = net.HardwareAddr(f.arp.SourceHwAddress).String()
		dst = net.HardwareAddr(f.arp.DstHwAddress).String()
		fmt.Fprintf(b, "Protocol: ARP (Address Resolution)\nOperation:  %s\nSender MAC: %s\nSender IP:  %s\nTarget MAC: %s\nTarget IP:  %s\n",
			arpOperation(f.arp.Operation), src, net.IP(f.arp.SourceProtAddress), dst, net.IP(f.arp.DstProtAddress))
		return src, dst, true
	}
	return "", "", false
}

func describeTransport(f *Frame, b *strings.Builder) {
	if f.transport == transportNone {
		return
	}
	b.WriteString("\n--- TRANSPORT LAYER ---\n")
	switch f.transport {
	case transportTCP:
		fmt.Fprintf(b, "Type:  TCP\nPorts: %d -> %d\nSeq:   %d\nAck:   %d\nFlags: %s\nWin:   %d\n",
			uint16(f.tcp.SrcPort), uint16(f.tcp.DstPort), f.tcp.Seq, f.tcp.Ack, tcpFlags(&f.tcp), f.tcp.Window)
	case transportUDP:
		fmt.Fprintf(b, "Type:  UDP\nPorts: %d -> %d\nLen:   %d\n",
			uint16(f.udp.SrcPort), uint16(f.udp.DstPort), f.udp.Length)
	case transportICMPv4:
		fmt.Fprintf(b, "Type:  ICMPv4\nCode:  %s\nID:    %d\nSeq:   %d\n",
			f.icmp4.TypeCode, f.icmp4.Id, f.icmp4.Seq)
	case transportICMPv6:
		fmt.Fprintf(b, "Type:  ICMPv6\nCode:  %s\n", f.icmp6.TypeCode)
	}
}

func arpOperation(op uint16) string {
	switch op {
	case layers.ARPRequest:
		return "request"
	case layers.ARPReply:
		return "reply"
	}
	return fmt.Sprintf("op %d", op)
}

func tcpFlags(t *layers.TCP) string {
	var flags []string
	for _, fl := range []struct {
		set  bool
		name string
	}{
		{t.SYN, "SYN"}, {t.ACK, "ACK"}, {t.FIN, "FIN"}, {t.RST, "RST"},
		{t.PSH, "PSH"}, {t.URG, "URG"}, {t.ECE, "ECE"}, {t.CWR, "CWR"},
	} {
		if fl.set {
			flags = append(flags, fl.name)
		}
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, " ")
}
