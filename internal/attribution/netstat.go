package attribution

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Socket is one row of /proc/net/{tcp,tcp6,udp,udp6}.
type Socket struct {
	LocalPort uint16
	Inode     uint64
}

// ParseNetstat reads a kernel socket table. The header line and rows with
// inode 0 (sockets in TIME_WAIT and similar) are skipped.
func ParseNetstat(r io.Reader) ([]Socket, error) {
	var sockets []Socket
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		local := fields[1]
		idx := strings.LastIndexByte(local, ':')
		if idx < 0 {
			return nil, fmt.Errorf("malformed local address %q", local)
		}
		port, err := strconv.ParseUint(local[idx+1:], 16, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed local port %q: %w", local, err)
		}
		inode, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed inode %q: %w", fields[9], err)
		}
		if inode == 0 {
			continue
		}
		sockets = append(sockets, Socket{LocalPort: uint16(port), Inode: inode})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sockets, nil
}

// socketInode extracts N from a "socket:[N]" fd link target.
func socketInode(link string) (uint64, bool) {
	if !strings.HasPrefix(link, "socket:[") || !strings.HasSuffix(link, "]") {
		return 0, false
	}
	inode, err := strconv.ParseUint(link[len("socket:["):len(link)-1], 10, 64)
	if err != nil {
		return 0, false
	}
	return inode, true
}
