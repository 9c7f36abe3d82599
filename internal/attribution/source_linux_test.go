//go:build linux

package attribution

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/mitchellh/go-ps"
)

type fakeProcess struct {
	pid  int
	name string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.name }

func writeProcTree(t *testing.T, root string, files map[string]string, links map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for name, target := range links {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, path); err != nil {
			t.Fatal(err)
		}
	}
}

func row(port uint16, inode int) string {
	return "   0: 0100007F:" + strconv.FormatUint(uint64(port), 16) + " 00000000:0000 0A 00000000:00000000 00:00000000 00000000 0 0 " + strconv.Itoa(inode) + " 1\n"
}

func TestProcSource_Snapshot(t *testing.T) {
	root := t.TempDir()
	header := "  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode\n"
	writeProcTree(t, root,
		map[string]string{
			"net/tcp": header + row(8080, 100) + row(5353, 103),
			"net/udp": header + row(53, 101) + row(5353, 102),
		},
		map[string]string{
			"10/fd/3": "socket:[100]",
			"10/fd/4": "/dev/null",
			"20/fd/5": "socket:[101]",
			"30/fd/6": "socket:[102]",
			"40/fd/7": "socket:[103]",
		},
	)

	src := &ProcSource{
		Root: root,
		Processes: func() ([]ps.Process, error) {
			return []ps.Process{
				fakeProcess{10, "server"},
				fakeProcess{20, "resolver"},
				fakeProcess{30, "avahi"},
				fakeProcess{40, "tcpdns"},
				fakeProcess{50, "gone"},
			}, nil
		},
	}

	table, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := map[uint16]string{
		8080: "server",
		53:   "resolver",
		5353: "tcpdns",
	}
	if len(table) != len(want) {
		t.Fatalf("Expected %v, got %v", want, table)
	}
	for port, name := range want {
		if table[port] != name {
			t.Errorf("Port %d: expected %q, got %q", port, name, table[port])
		}
	}
}

func TestProcSource_MissingTables(t *testing.T) {
	src := &ProcSource{
		Root:      t.TempDir(),
		Processes: func() ([]ps.Process, error) { return nil, nil },
	}
	table, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Expected missing tables to be tolerated, got %v", err)
	}
	if len(table) != 0 {
		t.Errorf("Expected empty table, got %v", table)
	}
}
