package db

import "strings"

// DefaultDealerID scopes data when no dealer is specified.
const DefaultDealerID = "default"

func normalizeDealerID(dealerID string) string {
	trimmed := strings.TrimSpace(dealerID)
	if trimmed == "" {
		return DefaultDealerID
	}
	return trimmed
}
