//go:build linux

package attribution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/mitchellh/go-ps"
	"golang.org/x/sync/errgroup"
)

type owner struct {
	pid  int
	name string
}

// ProcSource builds the port table from procfs: the kernel socket tables give
// port to inode, and each process's fd links give inode to process.
type ProcSource struct {
	Root      string
	Processes func() ([]ps.Process, error)
}

// NewSystemSource reads the live /proc.
func NewSystemSource() Source {
	return &ProcSource{Root: "/proc", Processes: ps.Processes}
}

func (s *ProcSource) Snapshot(ctx context.Context) (map[uint16]string, error) {
	var (
		tcp, udp []Socket
		owners   map[uint64]owner
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tcp, err = s.readTables("tcp", "tcp6")
		return err
	})
	g.Go(func() (err error) {
		udp, err = s.readTables("udp", "udp6")
		return err
	})
	g.Go(func() (err error) {
		owners, err = s.socketOwners(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := make(map[uint16]string)
	claim := func(sockets []Socket, claimed map[uint16]int) {
		for _, sock := range sockets {
			o, ok := owners[sock.Inode]
			if !ok {
				continue
			}
			if pid, taken := claimed[sock.LocalPort]; taken && pid <= o.pid {
				continue
			}
			claimed[sock.LocalPort] = o.pid
			table[sock.LocalPort] = o.name
		}
	}
	// UDP first so a TCP owner of the same port replaces it.
	claim(udp, map[uint16]int{})
	claim(tcp, map[uint16]int{})
	return table, nil
}

func (s *ProcSource) readTables(names ...string) ([]Socket, error) {
	var all []Socket
	for _, name := range names {
		f, err := os.Open(filepath.Join(s.Root, "net", name))
		if err != nil {
			// tcp6/udp6 are absent when IPv6 is disabled.
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open socket table %s: %w", name, err)
		}
		sockets, err := ParseNetstat(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse socket table %s: %w", name, err)
		}
		all = append(all, sockets...)
	}
	return all, nil
}

// socketOwners walks every process's fd directory. Processes that exit or
// deny access mid-walk are skipped.
func (s *ProcSource) socketOwners(ctx context.Context) (map[uint64]owner, error) {
	procs, err := s.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var (
		mu     sync.Mutex
		owners = make(map[uint64]owner)
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range procs {
		p := p
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fdDir := filepath.Join(s.Root, strconv.Itoa(p.Pid()), "fd")
			entries, err := os.ReadDir(fdDir)
			if err != nil {
				return nil
			}
			for _, e := range entries {
				link, err := os.Readlink(filepath.Join(fdDir, e.Name()))
				if err != nil {
					continue
				}
				inode, ok := socketInode(link)
				if !ok {
					continue
				}
				mu.Lock()
				if cur, seen := owners[inode]; !seen || p.Pid() < cur.pid {
					owners[inode] = owner{pid: p.Pid(), name: p.Executable()}
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return owners, nil
}
