// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package suppressions maintains the allow-list of known-benign
// findings: letterhead phone numbers, specimen Aadhaar values, test
// cards. Rules match on type and exact value, optionally pinned to a
// page. An expired rule no longer removes anything but still shows up
// in the report so the owner knows it lapsed.
package suppressions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"redact-scan/internal/detector"
	"redact-scan/internal/observability"
)

// defaultExpiryDays is how long a new rule lives when no explicit
// expiry is given. Allow-lists should be re-justified, not eternal.
const defaultExpiryDays = 7

// Rule is one allow-list entry. Page 0 matches any page.
type Rule struct {
	ID        string     `yaml:"id"`
	Type      string     `yaml:"type"`
	Value     string     `yaml:"value"`
	Page      int        `yaml:"page,omitempty"`
	Reason    string     `yaml:"reason,omitempty"`
	Enabled   bool       `yaml:"enabled"`
	CreatedBy string     `yaml:"created_by,omitempty"`
	CreatedAt time.Time  `yaml:"created_at,omitempty"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
}

// expired reports whether the rule has lapsed at the given instant.
func (r Rule) expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// matches reports whether the rule covers the entity. Type comparison
// is case-insensitive; value comparison is exact after trimming.
func (r Rule) matches(e detector.Entity) bool {
	if !strings.EqualFold(r.Type, string(e.Type)) {
		return false
	}
	if strings.TrimSpace(r.Value) != strings.TrimSpace(e.Value) {
		return false
	}
	if r.Page != 0 && r.Page != e.Box.Page {
		return false
	}
	return true
}

// File is the on-disk YAML shape.
type File struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Manager loads the rule file once and filters entity sets against it.
// Filtering is read-only, so one Manager may serve concurrent runs;
// the mutating operations back the suppress subcommand, which runs in
// its own process.
type Manager struct {
	path     string
	file     *File
	enabled  bool
	observer *observability.StandardObserver
}

// NewManager loads the rule file at path. A missing file yields an
// empty manager; a file that exists but does not parse is an error,
// because silently ignoring a broken allow-list would resurface every
// suppressed finding. An empty path yields an empty manager that never
// saves.
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path:    path,
		file:    &File{Version: "1.0"},
		enabled: true,
	}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read suppression file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse suppression file %s: %w", path, err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	m.file = &file
	return m, nil
}

// SetObserver sets the observability component.
func (m *Manager) SetObserver(observer *observability.StandardObserver) {
	m.observer = observer
}

// SetEnabled enables or disables filtering.
func (m *Manager) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// IsEnabled returns whether filtering is active.
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Path returns the rule file path.
func (m *Manager) Path() string {
	return m.path
}

// Filter splits the fused entity set into kept and suppressed. A live
// matching rule removes the entity; a rule that matches but has expired
// leaves the entity in place and reports it with Expired set, so lapsed
// allow-lists surface instead of silently reappearing as findings.
func (m *Manager) Filter(entities []detector.Entity) ([]detector.Entity, []detector.SuppressedEntity) {
	if !m.enabled || len(m.file.Rules) == 0 {
		return entities, nil
	}

	var finishTiming func(bool, map[string]interface{})
	if m.observer != nil {
		finishTiming = m.observer.StartTiming("suppressions", "filter", m.path)
	}

	now := time.Now()
	kept := make([]detector.Entity, 0, len(entities))
	var suppressed []detector.SuppressedEntity

	for _, entity := range entities {
		live, lapsed := m.lookup(entity, now)
		switch {
		case live != nil:
			suppressed = append(suppressed, detector.SuppressedEntity{
				Entity:       entity,
				SuppressedBy: live.ID,
				RuleReason:   live.Reason,
				ExpiresAt:    live.ExpiresAt,
			})
		case lapsed != nil:
			kept = append(kept, entity)
			suppressed = append(suppressed, detector.SuppressedEntity{
				Entity:       entity,
				SuppressedBy: lapsed.ID,
				RuleReason:   lapsed.Reason,
				ExpiresAt:    lapsed.ExpiresAt,
				Expired:      true,
			})
		default:
			kept = append(kept, entity)
		}
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"input":      len(entities),
			"suppressed": len(entities) - len(kept),
			"rule_count": len(m.file.Rules),
		})
	}

	return kept, suppressed
}

// lookup finds the first live rule covering the entity, or failing
// that the first expired one. A live rule always wins over an expired
// rule on the same finding.
func (m *Manager) lookup(e detector.Entity, now time.Time) (live, lapsed *Rule) {
	for i := range m.file.Rules {
		rule := &m.file.Rules[i]
		if !rule.Enabled || !rule.matches(e) {
			continue
		}
		if rule.expired(now) {
			if lapsed == nil {
				lapsed = rule
			}
			continue
		}
		return rule, nil
	}
	return nil, lapsed
}

// Add creates a rule for the given finding. Duplicate rules (same
// type, value, and page) are rejected. A nil expiry defaults to one
// week out.
func (m *Manager) Add(t detector.PIIType, value, reason, createdBy string, page int, expiresAt *time.Time) (Rule, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Rule{}, fmt.Errorf("suppression value must not be empty")
	}

	for _, rule := range m.file.Rules {
		if strings.EqualFold(rule.Type, string(t)) && rule.Value == value && rule.Page == page {
			return Rule{}, fmt.Errorf("suppression rule already exists for this finding")
		}
	}

	if expiresAt == nil {
		expiry := time.Now().AddDate(0, 0, defaultExpiryDays)
		expiresAt = &expiry
	}

	rule := Rule{
		ID:        fmt.Sprintf("SUP-%08d", m.nextID()),
		Type:      string(t),
		Value:     value,
		Page:      page,
		Reason:    reason,
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	m.file.Rules = append(m.file.Rules, rule)
	return rule, m.Save()
}

// Remove deletes a rule by ID.
func (m *Manager) Remove(id string) error {
	for i, rule := range m.file.Rules {
		if rule.ID == id {
			m.file.Rules = append(m.file.Rules[:i], m.file.Rules[i+1:]...)
			return m.Save()
		}
	}
	return fmt.Errorf("suppression rule %s not found", id)
}

// List returns all rules in file order.
func (m *Manager) List() []Rule {
	return m.file.Rules
}

// CleanupExpired removes lapsed rules and reports how many went.
func (m *Manager) CleanupExpired() (int, error) {
	now := time.Now()
	active := m.file.Rules[:0]
	for _, rule := range m.file.Rules {
		if !rule.expired(now) {
			active = append(active, rule)
		}
	}
	removed := len(m.file.Rules) - len(active)
	m.file.Rules = active
	if removed == 0 {
		return 0, nil
	}
	return removed, m.Save()
}

// Save writes the rule file with restrictive permissions. The file
// names real PII values, so it gets the same treatment as a secret.
func (m *Manager) Save() error {
	if m.path == "" {
		return fmt.Errorf("no suppression file path configured")
	}

	data, err := yaml.Marshal(m.file)
	if err != nil {
		return fmt.Errorf("failed to marshal suppression rules: %w", err)
	}

	dir := filepath.Dir(m.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create suppression directory: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write suppression file: %w", err)
	}
	return nil
}

// nextID returns one past the highest sequential rule number in use.
func (m *Manager) nextID() int {
	maxID := 0
	for _, rule := range m.file.Rules {
		var num int
		if _, err := fmt.Sscanf(rule.ID, "SUP-%08d", &num); err == nil && num > maxID {
			maxID = num
		}
	}
	return maxID + 1
}
