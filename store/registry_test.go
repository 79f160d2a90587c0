package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledgewood/tenantstore/store"
)

func TestLoadConstraints(t *testing.T) {
	source, err := store.LoadConstraints(strings.NewReader(employeeConstraints))
	if err != nil {
		t.Fatalf("LoadConstraints: %v", err)
	}

	c, err := source.GetConstraint(context.Background(), "Employee")
	if err != nil {
		t.Fatalf("GetConstraint: %v", err)
	}
	if c == nil {
		t.Fatal("expected a constraint for Employee")
	}
	if c.Name != "Employee" {
		t.Errorf("expected name 'Employee', got %q", c.Name)
	}
	if len(c.ReferencedBy) != 2 {
		t.Fatalf("expected 2 references, got %d", len(c.ReferencedBy))
	}
	if c.ReferencedBy[0].Name != "Timesheet" || c.ReferencedBy[0].ForeignKey != "EmployeeId" {
		t.Errorf("unexpected first reference: %+v", c.ReferencedBy[0])
	}
}

func TestLoadConstraints_Invalid(t *testing.T) {
	if _, err := store.LoadConstraints(strings.NewReader("{not yaml")); err == nil {
		t.Error("expected an error for malformed input")
	}
}

func TestGetConstraint_MissingReturnsNil(t *testing.T) {
	source, err := store.LoadConstraints(strings.NewReader(employeeConstraints))
	if err != nil {
		t.Fatalf("LoadConstraints: %v", err)
	}

	c, err := source.GetConstraint(context.Background(), "Widget")
	if err != nil {
		t.Fatalf("GetConstraint: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for an unconstrained type, got %+v", c)
	}
}

func TestLoadConstraintsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "constraints.yaml")
	if err := os.WriteFile(path, []byte(employeeConstraints), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	source, err := store.LoadConstraintsFile(path)
	if err != nil {
		t.Fatalf("LoadConstraintsFile: %v", err)
	}
	c, err := source.GetConstraint(context.Background(), "Employee")
	if err != nil || c == nil {
		t.Fatalf("expected Employee constraint, got %+v, %v", c, err)
	}
}

func TestLoadConstraintsFile_Missing(t *testing.T) {
	if _, err := store.LoadConstraintsFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
