package httpx

import (
	"path/filepath"
	"testing"

	"github.com/openminis/party/pkg/os"
)

func TestTLSConfigCreatesCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	tls := NewTLSConfig("games.example.com", dir)
	if tls.CertManager == nil || tls.CertManager.HostPolicy == nil {
		t.Fatalf("incomplete cert manager: %+v", tls)
	}
	if !os.Exists(dir) {
		t.Errorf("certificate cache dir was not created")
	}
}

func TestTLSConfigAnyHost(t *testing.T) {
	tls := NewTLSConfig("", t.TempDir())
	if tls.CertManager.HostPolicy != nil {
		t.Errorf("empty host must not restrict the host policy")
	}
}
