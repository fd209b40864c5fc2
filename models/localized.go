package models

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
)

// LocalizedText maps a lowercase language code (e.g. "en", "pt-br") to the
// text in that language. It is stored as a jsonb column.
type LocalizedText map[string]string

// Value implements driver.Valuer interface for database storage
func (lt LocalizedText) Value() (driver.Value, error) {
	if lt == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(lt)
}

// Scan implements sql.Scanner interface for database retrieval
func (lt *LocalizedText) Scan(value interface{}) error {
	if value == nil {
		*lt = LocalizedText{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, lt)
	case string:
		return json.Unmarshal([]byte(v), lt)
	}
	return nil
}

// Get returns the text for lang, falling back to fallback and then to any
// language, so callers always get something renderable for a non-empty map.
func (lt LocalizedText) Get(lang, fallback string) string {
	if v, ok := lt[lang]; ok && v != "" {
		return v
	}
	if v, ok := lt[fallback]; ok && v != "" {
		return v
	}
	for _, code := range lt.Languages() {
		if lt[code] != "" {
			return lt[code]
		}
	}
	return ""
}

// Languages returns the language codes present, sorted for determinism.
func (lt LocalizedText) Languages() []string {
	codes := make([]string, 0, len(lt))
	for code := range lt {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IsEmpty reports whether no language carries a non-empty value.
func (lt LocalizedText) IsEmpty() bool {
	for _, v := range lt {
		if v != "" {
			return false
		}
	}
	return true
}

// ValidateLanguageCodes checks every key is a plausible BCP-47-ish code:
// lowercase letters, optionally followed by a hyphenated subtag.
func (lt LocalizedText) ValidateLanguageCodes() error {
	for code := range lt {
		if !isValidLanguageCode(code) {
			return ErrInvalidLanguageCode
		}
	}
	return nil
}

func isValidLanguageCode(code string) bool {
	if len(code) < 2 || len(code) > 8 {
		return false
	}
	seenHyphen := false
	for i, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if !seenHyphen {
				return false
			}
		case r == '-':
			if i == 0 || i == len(code)-1 || seenHyphen {
				return false
			}
			seenHyphen = true
		default:
			return false
		}
	}
	return true
}
