package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down file", version)
		}
	}
}

func TestMovimientosMigrationDefinesBucketColumns(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_movimientos.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	sql := string(data)
	for _, column := range []string{
		"sub_total_ars", "sub_total_usd_oficial", "sub_total_usd_blue",
		"monto_total_ars", "monto_total_usd_oficial", "monto_total_usd_blue",
		"descuento_aplicado", "tipo_de_cambio",
	} {
		if !strings.Contains(sql, column) {
			t.Fatalf("expected column %s in movimientos migration", column)
		}
	}
}

func TestRunMigrationsInvalidURL(t *testing.T) {
	if err := RunMigrations("not-a-url", zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
