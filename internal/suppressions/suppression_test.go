// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"redact-scan/internal/detector"
	"redact-scan/internal/geometry"
)

func testEntity(t detector.PIIType, value string, page int) detector.Entity {
	return detector.NewEntity(t, value, 0.95,
		geometry.Box{X: 100, Y: 200, W: 180, H: 20, Page: page},
		detector.LayerDeterministic, "test")
}

func TestNewManager_MissingFileIsEmpty(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if !m.IsEnabled() {
		t.Error("manager should be enabled by default")
	}
	if len(m.List()) != 0 {
		t.Errorf("expected no rules, got %d", len(m.List()))
	}
}

func TestNewManager_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("rules: [not, {closed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager(path); err == nil {
		t.Fatal("expected error for malformed suppression file")
	}
}

func TestFilter_LiveRuleRemovesEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypePhone, "1800 425 3800", "bank helpline on letterhead", "tester", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entities := []detector.Entity{
		testEntity(detector.TypePhone, "1800 425 3800", 1),
		testEntity(detector.TypePhone, "9876543210", 1),
	}
	kept, suppressed := m.Filter(entities)

	if len(kept) != 1 {
		t.Fatalf("expected 1 kept entity, got %d", len(kept))
	}
	if kept[0].Value != "9876543210" {
		t.Errorf("wrong entity kept: %q", kept[0].Value)
	}
	if len(suppressed) != 1 {
		t.Fatalf("expected 1 suppressed entity, got %d", len(suppressed))
	}
	s := suppressed[0]
	if s.Entity.Value != "1800 425 3800" {
		t.Errorf("wrong entity suppressed: %q", s.Entity.Value)
	}
	if s.SuppressedBy != "SUP-00000001" {
		t.Errorf("expected rule ID SUP-00000001, got %q", s.SuppressedBy)
	}
	if s.RuleReason != "bank helpline on letterhead" {
		t.Errorf("unexpected reason %q", s.RuleReason)
	}
	if s.Expired {
		t.Error("live rule should not be reported as expired")
	}
}

func TestFilter_ExpiredRuleReportsButKeeps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if _, err := m.Add(detector.TypeAadhaar, "2345 6789 0124", "specimen card", "tester", 0, &past); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entities := []detector.Entity{testEntity(detector.TypeAadhaar, "2345 6789 0124", 1)}
	kept, suppressed := m.Filter(entities)

	if len(kept) != 1 {
		t.Fatalf("expired rule must not remove the entity; kept %d", len(kept))
	}
	if len(suppressed) != 1 {
		t.Fatalf("expired rule must still be reported; got %d records", len(suppressed))
	}
	if !suppressed[0].Expired {
		t.Error("report should carry the expired flag")
	}
}

func TestFilter_LiveRuleWinsOverExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if _, err := m.Add(detector.TypeEmail, "info@example.com", "old rule", "tester", 0, &past); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add(detector.TypeEmail, "info@example.com", "renewed rule", "tester", 1, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	kept, suppressed := m.Filter([]detector.Entity{testEntity(detector.TypeEmail, "info@example.com", 1)})

	if len(kept) != 0 {
		t.Fatalf("live rule should remove the entity; kept %d", len(kept))
	}
	if len(suppressed) != 1 || suppressed[0].Expired {
		t.Fatalf("expected one live suppression record, got %+v", suppressed)
	}
	if suppressed[0].RuleReason != "renewed rule" {
		t.Errorf("live rule should win, got reason %q", suppressed[0].RuleReason)
	}
}

func TestFilter_PageScopedRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypePhone, "9876543210", "footer on page 2 only", "tester", 2, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entities := []detector.Entity{
		testEntity(detector.TypePhone, "9876543210", 1),
		testEntity(detector.TypePhone, "9876543210", 2),
	}
	kept, _ := m.Filter(entities)

	if len(kept) != 1 {
		t.Fatalf("expected only the page-2 copy suppressed, kept %d", len(kept))
	}
	if kept[0].Box.Page != 1 {
		t.Errorf("page-1 entity should survive, kept page %d", kept[0].Box.Page)
	}
}

func TestFilter_TypeMustMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypePhone, "9876543210", "", "tester", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Same digits reported as an account number stay in the result.
	kept, suppressed := m.Filter([]detector.Entity{testEntity(detector.TypeAccountNumber, "9876543210", 1)})
	if len(kept) != 1 || len(suppressed) != 0 {
		t.Fatalf("type mismatch must not suppress: kept=%d suppressed=%d", len(kept), len(suppressed))
	}
}

func TestFilter_DisabledManagerPassesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypePhone, "9876543210", "", "tester", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.SetEnabled(false)

	kept, suppressed := m.Filter([]detector.Entity{testEntity(detector.TypePhone, "9876543210", 1)})
	if len(kept) != 1 || suppressed != nil {
		t.Fatalf("disabled manager must pass everything through: kept=%d suppressed=%d", len(kept), len(suppressed))
	}
}

func TestAdd_RejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypePAN, "ABCPE1234F", "specimen", "tester", 0, nil); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if _, err := m.Add(detector.TypePAN, "ABCPE1234F", "specimen again", "tester", 0, nil); err == nil {
		t.Fatal("expected duplicate rule to be rejected")
	}
	// Same value on a different page is a distinct rule.
	if _, err := m.Add(detector.TypePAN, "ABCPE1234F", "page-scoped", "tester", 3, nil); err != nil {
		t.Fatalf("page-scoped Add failed: %v", err)
	}
}

func TestAdd_DefaultExpiryOneWeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	rule, err := m.Add(detector.TypePhone, "9876543210", "", "tester", 0, nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if rule.ExpiresAt == nil {
		t.Fatal("expected default expiry to be set")
	}
	until := time.Until(*rule.ExpiresAt)
	if until < 6*24*time.Hour || until > 8*24*time.Hour {
		t.Errorf("default expiry should be about a week out, got %v", until)
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	rule, err := m.Add(detector.TypePhone, "9876543210", "", "tester", 0, nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := m.Remove(rule.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(m.List()) != 0 {
		t.Errorf("expected no rules after removal, got %d", len(m.List()))
	}
	if err := m.Remove(rule.ID); err == nil {
		t.Error("removing a missing rule should fail")
	}
}

func TestCleanupExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if _, err := m.Add(detector.TypePhone, "9876543210", "lapsed", "tester", 0, &past); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := m.Add(detector.TypeEmail, "info@example.com", "current", "tester", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	removed, err := m.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 rule removed, got %d", removed)
	}
	if len(m.List()) != 1 || m.List()[0].Reason != "current" {
		t.Errorf("wrong rules survived cleanup: %+v", m.List())
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suppressions.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Add(detector.TypeAadhaar, "2345 6789 0124", "specimen card", "tester", 1, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	rules := reloaded.List()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule after reload, got %d", len(rules))
	}
	rule := rules[0]
	if rule.ID != "SUP-00000001" || rule.Type != "AADHAAR" || rule.Value != "2345 6789 0124" || rule.Page != 1 {
		t.Errorf("rule did not round-trip: %+v", rule)
	}

	// The file names PII values, so it must not be world-readable.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %o", info.Mode().Perm())
	}
}

func TestSave_RequiresPath(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if err := m.Save(); err == nil {
		t.Error("saving without a path should fail")
	}
}
