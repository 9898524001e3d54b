package httpx

import (
	"github.com/openminis/party/pkg/os"
	"golang.org/x/crypto/acme/autocert"
)

const defaultCertCacheDir = "assets/cache"

type TLS struct {
	CertManager *autocert.Manager
}

// NewTLSConfig makes an autocert manager caching certificates in
// cacheDir; a missing dir is created, a missing host allows any.
func NewTLSConfig(host string, cacheDir string) *TLS {
	if cacheDir == "" {
		cacheDir = defaultCertCacheDir
	}
	_ = os.CheckCreateDir(cacheDir)
	tls := TLS{
		CertManager: &autocert.Manager{
			Prompt: autocert.AcceptTOS,
			Cache:  autocert.DirCache(cacheDir),
		},
	}
	if host != "" {
		tls.CertManager.HostPolicy = autocert.HostWhitelist(host)
	}
	return &tls
}
