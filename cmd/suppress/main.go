// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"redact-scan/internal/detector"
	"redact-scan/internal/suppressions"
)

func main() {
	var (
		suppressionFile = flag.String("suppression-file", ".redact-scan-suppressions.yaml", "Path to suppression rule file")
		action          = flag.String("action", "", "Action to perform: list, add, remove, cleanup")
		id              = flag.String("id", "", "Suppression rule ID (for remove action)")
		piiType         = flag.String("type", "", "PII type of the finding (for add action, e.g. AADHAAR)")
		value           = flag.String("value", "", "Exact finding value to allow-list (for add action)")
		reason          = flag.String("reason", "", "Reason for the suppression (for add action)")
		page            = flag.Int("page", 0, "Page the rule is pinned to; 0 matches any page (for add action)")
		createdBy       = flag.String("created-by", "", "Rule author (for add action)")
		expiresDays     = flag.Int("expires", 0, "Days until the rule expires; 0 uses the default")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Error: --action is required")
		fmt.Println("Usage: redact-suppress --action <list|add|remove|cleanup> [options]")
		os.Exit(1)
	}

	manager, err := suppressions.NewManager(*suppressionFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch *action {
	case "list":
		listRules(manager)
	case "add":
		if *piiType == "" || *value == "" {
			fmt.Println("Error: --type and --value are required for add action")
			os.Exit(1)
		}
		addRule(manager, *piiType, *value, *reason, *createdBy, *page, *expiresDays)
	case "remove":
		if *id == "" {
			fmt.Println("Error: --id is required for remove action")
			os.Exit(1)
		}
		removeRule(manager, *id)
	case "cleanup":
		cleanupExpired(manager)
	default:
		fmt.Printf("Error: Unknown action '%s'\n", *action)
		fmt.Println("Valid actions: list, add, remove, cleanup")
		os.Exit(1)
	}
}

func listRules(manager *suppressions.Manager) {
	rules := manager.List()
	if len(rules) == 0 {
		fmt.Println("No suppression rules found.")
		return
	}

	fmt.Printf("Found %d suppression rules:\n\n", len(rules))
	now := time.Now()
	for _, rule := range rules {
		fmt.Printf("ID: %s\n", rule.ID)
		fmt.Printf("Type: %s\n", rule.Type)
		fmt.Printf("Value: %s\n", rule.Value)
		if rule.Page != 0 {
			fmt.Printf("Page: %d\n", rule.Page)
		}
		if rule.Reason != "" {
			fmt.Printf("Reason: %s\n", rule.Reason)
		}
		if rule.CreatedBy != "" {
			fmt.Printf("Created By: %s\n", rule.CreatedBy)
		}
		if !rule.CreatedAt.IsZero() {
			fmt.Printf("Created At: %s\n", rule.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if rule.ExpiresAt != nil {
			status := ""
			if now.After(*rule.ExpiresAt) {
				status = " (EXPIRED)"
			}
			fmt.Printf("Expires At: %s%s\n", rule.ExpiresAt.Format("2006-01-02 15:04:05"), status)
		}
		fmt.Println("---")
	}
}

func addRule(manager *suppressions.Manager, piiType, value, reason, createdBy string, page, expiresDays int) {
	t, ok := detector.ParsePIIType(piiType)
	if !ok {
		fmt.Printf("Error: unknown PII type '%s'\n", piiType)
		os.Exit(1)
	}

	var expiresAt *time.Time
	if expiresDays > 0 {
		expiry := time.Now().AddDate(0, 0, expiresDays)
		expiresAt = &expiry
	}

	rule, err := manager.Add(t, value, reason, createdBy, page, expiresAt)
	if err != nil {
		fmt.Printf("Error adding suppression: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created suppression rule %s (expires %s)\n",
		rule.ID, rule.ExpiresAt.Format("2006-01-02"))
}

func removeRule(manager *suppressions.Manager, id string) {
	if err := manager.Remove(id); err != nil {
		fmt.Printf("Error removing suppression: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully removed suppression rule: %s\n", id)
}

func cleanupExpired(manager *suppressions.Manager) {
	removed, err := manager.CleanupExpired()
	if err != nil {
		fmt.Printf("Error cleaning up expired rules: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cleaned up %d expired suppression rules\n", removed)
}
