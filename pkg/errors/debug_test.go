package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpReadsPgxErrorFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "shops_owner_id_key",
		TableName:      "shops",
		Detail:         "Key (owner_id)=(u1) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert shop: %w", pgErr), "failed to save shop")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected code %s, got %s", CodeDependency, d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "shops_owner_id_key" || d.PGTable != "shops" {
		t.Fatalf("unexpected postgres fields: %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
}

func TestDumpWithoutDriverError(t *testing.T) {
	d := Dump(New(CodeNotFound, "shop not found"))
	if d.PGCode != "" || d.TopMessage != "NOT_FOUND: shop not found" {
		t.Fatalf("unexpected dump: %+v", d)
	}
	if empty := Dump(nil); empty.TopMessage != "" || empty.Chain != nil {
		t.Fatalf("expected empty dump for nil error, got %+v", empty)
	}
}
