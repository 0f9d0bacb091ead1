package privacy

var (
	identifierTypes = map[string]bool{
		"id":          true,
		"order_id":    true,
		"sales_id":    true,
		"employee_id": true,
		"voter_id":    true,
	}

	behavioralTypes = map[string]bool{
		"ip_address":  true,
		"mac_address": true,
		"location":    true,
		"device":      true,
	}
)

// Classify maps a PII type name to its reporting bucket. Anything that is
// not a known identifier or behavioral type is personal data.
func Classify(piiType string) Category {
	switch {
	case identifierTypes[piiType]:
		return CategoryIdentifiers
	case behavioralTypes[piiType]:
		return CategoryBehavioral
	default:
		return CategoryPII
	}
}
