package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "gitmax_test")
	os.Setenv("GITHUB_CLIENT_ID", "cid")
	os.Setenv("GITHUB_CLIENT_SECRET", "csecret")
	os.Setenv("SECRET_KEY", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.GitHub.ClientID == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.GitHub.TokenURL == "" || cfg.GitHub.APIBaseURL == "" {
		t.Fatalf("expected provider endpoint defaults to be set: %+v", cfg.GitHub)
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		t.Fatalf("expected positive access token TTL, got %v", cfg.JWT.AccessTokenTTL)
	}
}
