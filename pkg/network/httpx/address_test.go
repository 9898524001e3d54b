package httpx

import (
	"fmt"
	"testing"
)

func TestBuildAddress(t *testing.T) {
	l, err := NewListener("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("listen fail: %v", err)
	}
	defer func() { _ = l.Close() }()
	port := l.GetPort()
	if port == 0 {
		t.Fatalf("listener has no port")
	}

	tests := []struct {
		address string
		want    string
	}{
		{"host.com:8080", fmt.Sprintf("host.com:%d", port)},
		{"host.com", fmt.Sprintf("host.com:%d", port)},
		{"", fmt.Sprintf("localhost:%d", port)},
	}
	for _, test := range tests {
		if got := buildAddress(test.address, *l); got != test.want {
			t.Errorf("buildAddress(%q) = %q, want %q", test.address, got, test.want)
		}
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"host.com:8080", "host.com"},
		{"host.com", "host.com"},
		{" host.com ", "host.com"},
		{":8080", ""},
	}
	for _, test := range tests {
		if got := extractHost(test.address); got != test.want {
			t.Errorf("extractHost(%q) = %q, want %q", test.address, got, test.want)
		}
	}
}

func TestListenerPortRoll(t *testing.T) {
	busy, err := NewListener("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("listen fail: %v", err)
	}
	defer func() { _ = busy.Close() }()

	if _, err = NewListener(busy.Addr().String(), false); err == nil {
		t.Fatalf("expected an address-in-use error")
	}

	rolled, err := NewListener(busy.Addr().String(), true)
	if err != nil {
		t.Fatalf("port roll fail: %v", err)
	}
	defer func() { _ = rolled.Close() }()
	if rolled.GetPort() == busy.GetPort() {
		t.Errorf("rolled onto the same port %d", busy.GetPort())
	}
}
