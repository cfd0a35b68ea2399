// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager lifecycle and service entry conversion
package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Kitchen Robot",
		Port:        8927,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	defer mgr.Stop()

	if mgr.servers == nil {
		t.Error("servers channel should not be nil")
	}
}

func TestStopCancelsContext(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "r", Port: 1})
	mgr.Stop()

	select {
	case <-mgr.ctx.Done():
	default:
		t.Error("context should be cancelled after Stop")
	}
}

func TestTxtRecords(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []string
	}{
		{"audio only", Config{}, []string{"path=/livecam"}},
		{"with camera", Config{Camera: true}, []string{"path=/livecam", "camera=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := txtRecords(tt.config)
			if len(got) != len(tt.want) {
				t.Fatalf("txtRecords() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("txtRecords()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEntryToServer(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "rover._livecam._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       8927,
		InfoFields: []string{"path=/custom"},
	}

	server := entryToServer(entry)
	if server.Name != "rover" {
		t.Errorf("Name = %q, want rover", server.Name)
	}
	if server.Addr() != "192.168.1.20:8927" {
		t.Errorf("Addr() = %q", server.Addr())
	}
	if server.Path != "/custom" {
		t.Errorf("Path = %q, want /custom", server.Path)
	}
}

func TestDiscover_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := Discover(ctx); err == nil {
		t.Error("expected error when nothing is found")
	}
}
