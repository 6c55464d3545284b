package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"postgres", DialectPostgres, "UPDATE t SET a = ?, b = ? WHERE id = ?", "UPDATE t SET a = $1, b = $2 WHERE id = $3"},
		{"mysql untouched", DialectMySQL, "SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = ?"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rebind(tt.dialect, tt.in); got != tt.want {
				t.Fatalf("rebind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	if !isDuplicateKeyError(fmt.Errorf("wrap: %w", &mysql.MySQLError{Number: 1062})) {
		t.Error("mysql 1062 must be a duplicate")
	}
	if !isDuplicateKeyError(&pgconn.PgError{Code: "23505"}) {
		t.Error("postgres 23505 must be a duplicate")
	}
	if isDuplicateKeyError(&mysql.MySQLError{Number: 1452}) {
		t.Error("foreign key failure is not a duplicate")
	}
	if isDuplicateKeyError(errors.New("boom")) {
		t.Error("plain error is not a duplicate")
	}
}

func TestNormalizeDSN(t *testing.T) {
	got, err := normalizeDSN("mysql", "shop:pw@tcp(db:3306)/dynamo")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := mysql.ParseDSN(got)
	if err != nil {
		t.Fatalf("reparse %q: %v", got, err)
	}
	if !cfg.ParseTime || cfg.DBName != "dynamo" || cfg.Addr != "db:3306" || cfg.User != "shop" {
		t.Fatalf("unexpected dsn %q", got)
	}

	pg := "postgres://shop:pw@db:5432/dynamo?sslmode=disable"
	if got, _ := normalizeDSN("pgx", pg); got != pg {
		t.Fatalf("pgx dsn must be untouched, got %q", got)
	}

	if _, err := normalizeDSN("mysql", "not a dsn"); err == nil {
		t.Fatal("malformed mysql dsn must fail")
	}
}
