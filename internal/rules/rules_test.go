package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/folio-sh/folio/internal/content"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "validate.lua")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// TestLoadMissingScript verifies no rules means no validation
func TestLoadMissingScript(t *testing.T) {
	e, err := Load("")
	if err != nil || e != nil {
		t.Errorf("Load(\"\") = %v, %v", e, err)
	}
	e, err = Load(filepath.Join(t.TempDir(), "nope.lua"))
	if err != nil || e != nil {
		t.Errorf("Load(missing) = %v, %v", e, err)
	}
	// A nil engine accepts everything.
	if err := e.Validate("photos", content.Record{}); err != nil {
		t.Errorf("Nil engine rejected: %v", err)
	}
}

// TestLoadRequiresValidateFunction verifies scripts must define the hook
func TestLoadRequiresValidateFunction(t *testing.T) {
	path := writeScript(t, `x = 1`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for script without validate()")
	}
}

// TestValidateAccept verifies an accepting hook
func TestValidateAccept(t *testing.T) {
	path := writeScript(t, `
function validate(kind, record)
  return true
end`)
	e, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer e.Close()

	if err := e.Validate("photos", content.Record{"title": content.String("x")}); err != nil {
		t.Errorf("Validate rejected: %v", err)
	}
}

// TestValidateReject verifies a rejecting hook maps to ValidationError
func TestValidateReject(t *testing.T) {
	path := writeScript(t, `
function validate(kind, record)
  if kind == "photos" and (record.title == nil or record.title == "") then
    return false, "photos need a title"
  end
  return true
end`)
	e, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer e.Close()

	err = e.Validate("photos", content.Record{"title": content.String("")})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Reason != "photos need a title" {
		t.Errorf("Reason = %q", verr.Reason)
	}

	if err := e.Validate("photos", content.Record{"title": content.String("Dune")}); err != nil {
		t.Errorf("Valid record rejected: %v", err)
	}
	if err := e.Validate("stories", content.Record{}); err != nil {
		t.Errorf("Other kind rejected: %v", err)
	}
}

// TestValidateSeesNestedStructure verifies records and lists cross into Lua
func TestValidateSeesNestedStructure(t *testing.T) {
	path := writeScript(t, `
function validate(kind, record)
  if record.categories == nil or #record.categories == 0 then
    return false, "need a category"
  end
  return true
end`)
	e, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer e.Close()

	err = e.Validate("photos", content.Record{"categories": content.List{}})
	if err == nil {
		t.Error("Empty category list should be rejected")
	}

	err = e.Validate("photos", content.Record{
		"categories": content.List{content.String("Nature")},
	})
	if err != nil {
		t.Errorf("Categorized record rejected: %v", err)
	}
}

// TestValidateRejectWithoutReason verifies the fallback message
func TestValidateRejectWithoutReason(t *testing.T) {
	path := writeScript(t, `
function validate(kind, record)
  return false
end`)
	e, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer e.Close()

	err = e.Validate("photos", content.Record{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Reason == "" {
		t.Error("Expected fallback reason")
	}
}
