package assessment

import "strings"

// The recommendation contract and chart labels call the fifth category
// "change". ExternalKey and ParseExternalKey are the only translation points.
const externalImplementation = "change"

func ExternalKey(id CategoryID) string {
	if id == Implementation {
		return externalImplementation
	}
	return string(id)
}

// ParseExternalKey accepts both external and canonical keys, case-insensitively.
func ParseExternalKey(key string) (CategoryID, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == externalImplementation {
		return Implementation, true
	}
	id := CategoryID(k)
	if _, ok := categoryIndex[id]; ok {
		return id, true
	}
	return "", false
}
