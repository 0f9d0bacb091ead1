package privacy

import (
	regexp "github.com/wasilibs/go-re2"
)

// DefaultRules returns the built-in PII detection rules
func DefaultRules() []PatternRule {
	return []PatternRule{
		// Personal data
		{
			Name:    "email",
			Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		},
		{
			Name:    "phone",
			Pattern: regexp.MustCompile(`(?:^|[^\d])(?:\+?\d{1,3}[\-.\s]?)?\(?\d{3}\)?[\-.\s]?\d{3}[\-.\s]?\d{4}(?:[^\d]|$)`),
		},
		{
			Name:    "aadhaar",
			Pattern: regexp.MustCompile(`\b[2-9]\d{3}\s?\d{4}\s?\d{4}\b`),
		},
		{
			Name:    "pan",
			Pattern: regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
		},
		{
			Name:    "ssn",
			Pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		},
		{
			Name: "dob",
			Pattern: regexp.MustCompile(`\b(?:19|20)\d{2}[\-/](?:0[1-9]|1[0-2])[\-/](?:0[1-9]|[12]\d|3[01])\b|` +
				`\b(?:0[1-9]|[12]\d|3[01])[\-/](?:0[1-9]|1[0-2])[\-/](?:19|20)\d{2}\b`),
		},
		{
			Name:    "gender",
			Pattern: regexp.MustCompile(`(?i)^\s*(?:male|female|m|f|other|non-binary|transgender)\s*$`),
		},
		{
			Name:    "name",
			Pattern: regexp.MustCompile(`^[A-Z][a-z]+(?:\s[A-Z][a-z]+)+$`),
		},
		{
			Name:    "credit_card",
			Pattern: regexp.MustCompile(`\b(?:4\d{3}|5[1-5]\d{2}|3[47]\d{2}|6011)[\-\s]?\d{4}[\-\s]?\d{4}[\-\s]?\d{1,4}\b`),
		},
		{
			Name:    "passport",
			Pattern: regexp.MustCompile(`\b[A-PR-WY][1-9]\d\s?\d{4}[1-9]\b`),
		},

		// Identifiers
		{
			Name:    "id",
			Pattern: regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`),
		},
		{
			Name:    "order_id",
			Pattern: regexp.MustCompile(`(?i)\bORD[\-_]?\d{4,}\b`),
		},
		{
			Name:    "sales_id",
			Pattern: regexp.MustCompile(`(?i)\b(?:SALES?|SLS)[\-_]?\d{4,}\b`),
		},
		{
			Name:    "employee_id",
			Pattern: regexp.MustCompile(`(?i)\bEMP[\-_]?\d{3,}\b`),
		},
		{
			Name:    "voter_id",
			Pattern: regexp.MustCompile(`\b[A-Z]{3}\d{7}\b`),
		},

		// Behavioral
		{
			Name:    "ip_address",
			Pattern: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`),
		},
		{
			Name:    "mac_address",
			Pattern: regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:\-]){5}[0-9A-Fa-f]{2}\b`),
		},
		{
			Name:    "location",
			Pattern: regexp.MustCompile(`[\-+]?(?:[1-8]?\d\.\d+|90\.0+)\s*,\s*[\-+]?(?:180\.0+|(?:1[0-7]\d|[1-9]?\d)\.\d+)`),
		},
		{
			Name:    "device",
			Pattern: regexp.MustCompile(`(?i)\b(?:iphone|ipad|android|windows nt|macintosh|linux x86_64|mozilla/\d)`),
		},
	}
}
