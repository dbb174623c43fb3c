package database

import (
	"strings"
	"testing"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "nutri",
		Name: "nutriconsultas",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	expected := "host=localhost port=5432 user=nutri dbname=nutriconsultas sslmode=disable"
	if dsn != expected {
		t.Fatalf("expected %q, got %q", expected, dsn)
	}
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "public",
		},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	for _, part := range []string{
		"host=db.example.com",
		"port=6543",
		"password=pass",
		"sslmode=require",
		"search_path=public",
	} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("expected dsn to contain %q, got %q", part, dsn)
		}
	}
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	if _, err := buildPostgresDSN(Config{Name: "db"}); err == nil {
		t.Fatal("expected error without user")
	}
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "nutri",
		Password: "secret",
		Name:     "nutriconsultas",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !strings.HasPrefix(dsn, "nutri:secret@tcp(127.0.0.1:3306)/nutriconsultas?") {
		t.Fatalf("unexpected dsn prefix: %q", dsn)
	}
	for _, part := range []string{"charset=utf8mb4", "parseTime=True", "loc=Local"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("expected dsn to contain %q, got %q", part, dsn)
		}
	}
}
