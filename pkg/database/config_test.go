package database_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/certify/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "certify", User: "certify"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetime, "15m"},
		{"conn_timeout", cfg.ConnTimeout, "5s"},
		{"ping_retries", cfg.PingRetries, 5},
		{"ping_backoff", cfg.PingBackoff, "500ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://u:p@db:5432/certify")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_MAX_OPEN", "50")
	t.Setenv("TEST_DB_TIMEOUT", "10s")
	t.Setenv("TEST_DB_PING_RETRIES", "2")

	env := &database.Env{
		URL:          "TEST_DB_URL",
		Port:         "TEST_DB_PORT",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		ConnTimeout:  "TEST_DB_TIMEOUT",
		PingRetries:  "TEST_DB_PING_RETRIES",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"url", cfg.URL, "postgres://u:p@db:5432/certify"},
		{"port", cfg.Port, 5433},
		{"max_open_conns", cfg.MaxOpenConns, 50},
		{"conn_timeout", cfg.ConnTimeout, "10s"},
		{"ping_retries", cfg.PingRetries, 2},
		{"dsn", cfg.Dsn(), "postgres://u:p@db:5432/certify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "certify"}, "name required"},
		{"missing user", database.Config{Name: "certify"}, "user required"},
		{"invalid conn_max_lifetime", database.Config{Name: "c", User: "c", ConnMaxLifetime: "bad"}, "invalid conn_max_lifetime"},
		{"invalid conn_timeout", database.Config{Name: "c", User: "c", ConnTimeout: "bad"}, "invalid conn_timeout"},
		{"invalid ping_backoff", database.Config{Name: "c", User: "c", PingBackoff: "bad"}, "invalid ping_backoff"},
		{"negative ping_retries", database.Config{Name: "c", User: "c", PingRetries: -1}, "ping_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFinalizeURLSkipsDiscreteValidation(t *testing.T) {
	cfg := database.Config{URL: "postgres://localhost/certify"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{
		Host:         "localhost",
		Port:         5432,
		Name:         "basedb",
		User:         "baseuser",
		MaxOpenConns: 25,
	}

	base.Merge(&database.Config{Host: "remotehost", Name: "overlaydb", PingRetries: 9})

	if base.Host != "remotehost" || base.Name != "overlaydb" {
		t.Errorf("overlay not applied: %+v", base)
	}
	if base.User != "baseuser" || base.Port != 5432 || base.MaxOpenConns != 25 {
		t.Errorf("zero overlay fields overwrote base: %+v", base)
	}
	if base.PingRetries != 9 {
		t.Errorf("ping_retries: got %d, want 9", base.PingRetries)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{
		Host:     "localhost",
		Port:     5432,
		Name:     "certify",
		User:     "certify",
		Password: "secret",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 dbname=certify user=certify password=secret sslmode=disable"
	if dsn := cfg.Dsn(); dsn != expected {
		t.Errorf("dsn:\ngot  %s\nwant %s", dsn, expected)
	}
}

func TestDurationParsers(t *testing.T) {
	cfg := database.Config{
		ConnMaxLifetime: "15m",
		ConnTimeout:     "5s",
		PingBackoff:     "250ms",
	}

	if d := cfg.ConnMaxLifetimeDuration(); d != 15*time.Minute {
		t.Errorf("conn_max_lifetime: got %v, want 15m", d)
	}
	if d := cfg.ConnTimeoutDuration(); d != 5*time.Second {
		t.Errorf("conn_timeout: got %v, want 5s", d)
	}
	if d := cfg.PingBackoffDuration(); d != 250*time.Millisecond {
		t.Errorf("ping_backoff: got %v, want 250ms", d)
	}
}

func TestURLString(t *testing.T) {
	cfg := database.Config{Host: "db", Port: 5433, Name: "certify", User: "svc", Password: "p@ss", SSLMode: "require"}
	if got, want := cfg.URLString(), "postgres://svc:p%40ss@db:5433/certify?sslmode=require"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	cfg.URL = "postgres://other/db"
	if got := cfg.URLString(); got != cfg.URL {
		t.Errorf("explicit url not preferred: %q", got)
	}
}
