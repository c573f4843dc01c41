package service

import (
	"bytes"
	"encoding/json"
)

// structuredIdentity is the object form of a client identity payload.
type structuredIdentity struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// ResolveIdentity extracts a user identifier from a raw event
// argument. Clients send either a bare string, an object carrying
// username and/or id (username takes precedence), or a bare number.
// Anything that does not yield a non-empty string resolves to false
// and the event is dropped by the caller.
func ResolveIdentity(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	var obj structuredIdentity
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Username != "" {
			return obj.Username, true
		}
		if obj.ID != "" {
			return obj.ID, true
		}
		return "", false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	return "", false
}

// resolveCategory coerces a category argument to a string. Non-string
// JSON scalars are stringified; null and empty values are rejected.
func resolveCategory(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	text := string(bytes.TrimSpace(raw))
	if text == "" || text == "null" {
		return "", false
	}
	return text, true
}
