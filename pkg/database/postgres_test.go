package database

import (
	"context"
	"reflect"
	"testing"

	"gemini-gateway/config"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{
		Host: "db", Port: "5433", User: "app", Password: "pw", Name: "gateway", SSLMode: "require",
	})
	want := "host=db user=app password=pw dbname=gateway port=5433 sslmode=require TimeZone=UTC"
	if got != want {
		t.Fatalf("DSN = %q; want %q", got, want)
	}
}

func TestMigrationNamesOrdered(t *testing.T) {
	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("MigrationNames: %v", err)
	}
	want := []string{"001_users.sql", "002_chats.sql"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v; want %v", names, want)
	}
}

func TestHealthCheckNilDB(t *testing.T) {
	if err := HealthCheck(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
