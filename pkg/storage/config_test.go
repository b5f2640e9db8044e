package storage_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/certify/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "certify-archives" {
		t.Errorf("container_name: got %s, want certify-archives", cfg.ContainerName)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries: got %d, want 3", cfg.MaxRetries)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "archives")
	t.Setenv("TEST_ACCOUNT_URL", "https://certify.blob.core.windows.net/")
	t.Setenv("TEST_MAX_RETRIES", "7")

	env := &storage.Env{
		ContainerName: "TEST_CONTAINER",
		AccountURL:    "TEST_ACCOUNT_URL",
		MaxRetries:    "TEST_MAX_RETRIES",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "archives" {
		t.Errorf("container_name: got %s, want archives", cfg.ContainerName)
	}
	if cfg.AccountURL != "https://certify.blob.core.windows.net/" {
		t.Errorf("account_url: got %s", cfg.AccountURL)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("max_retries: got %d, want 7", cfg.MaxRetries)
	}
}

func TestFinalizeValidation(t *testing.T) {
	cfg := storage.Config{ContainerName: "archives"}
	err := cfg.Finalize(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "connection_string or account_url required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		ContainerName:    "archives",
		ConnectionString: "base-conn",
	}

	base.Merge(&storage.Config{ConnectionString: "overlay-conn"})

	if base.ContainerName != "archives" {
		t.Errorf("container_name should remain archives, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}
