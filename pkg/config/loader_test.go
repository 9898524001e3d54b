package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaultConfig(t *testing.T) {
	var conf RelayConfig
	if err := LoadConfig(&conf, "../../configs"); err != nil {
		t.Fatalf("load fail: %v", err)
	}
	if conf.Relay.Server.Address == "" {
		t.Errorf("no default server address")
	}
	if conf.Relay.Server.GetAddr() != conf.Relay.Server.Address {
		t.Errorf("http config should use the plain address")
	}
	if conf.Library.BasePath == "" {
		t.Errorf("no default library path")
	}
}

func TestEnvOverride(t *testing.T) {
	if err := os.Setenv("PARTY_RELAY_SERVER_ADDRESS", "test.it:3333"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Unsetenv("PARTY_RELAY_SERVER_ADDRESS") }()

	var conf RelayConfig
	if err := LoadConfig(&conf, "../../configs"); err != nil {
		t.Fatalf("load fail: %v", err)
	}
	if conf.Relay.Server.Address != "test.it:3333" {
		t.Errorf("env override ignored, address %v", conf.Relay.Server.Address)
	}
}

func TestClientConfigFromEnv(t *testing.T) {
	if err := os.Setenv("PARTY_SESSION_PUBLICURL", "https://games.test/"); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv("PARTY_SESSION_RELAYDELAYMS", "5"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Unsetenv("PARTY_SESSION_PUBLICURL")
		_ = os.Unsetenv("PARTY_SESSION_RELAYDELAYMS")
	}()

	conf := NewClientConfig()
	if conf.Session.PublicURL != "https://games.test/" {
		t.Errorf("public url ignored: %v", conf.Session.PublicURL)
	}
	if conf.Session.Delay() != 5*time.Millisecond {
		t.Errorf("wrong relay delay: %v", conf.Session.Delay())
	}
	if conf.Session.MaxPlayers != 4 {
		t.Errorf("wrong default capacity: %v", conf.Session.MaxPlayers)
	}
}

func TestSessionDelayUnset(t *testing.T) {
	if d := (Session{}).Delay(); d >= 0 {
		t.Errorf("unset delay should be negative, got %v", d)
	}
}
