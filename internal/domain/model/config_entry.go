package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const maxConfigKeyLen = 255

var configKeyRe = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ConfigEntry is one row of the generic key/value config table. Value holds
// ciphertext when Encrypted is true; repositories decrypt on read so callers
// only ever see plaintext.
type ConfigEntry struct {
	Key       string    `json:"key"        db:"key"`
	Value     string    `json:"value"      db:"value"`
	Encrypted bool      `json:"encrypted"  db:"encrypted"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidateConfigKey checks a config key name.
func ValidateConfigKey(key string) error {
	k := strings.TrimSpace(key)
	if k == "" {
		return errors.New("key is required and cannot be empty")
	}
	if utf8.RuneCountInString(k) > maxConfigKeyLen {
		return errors.New("key cannot exceed 255 characters")
	}
	if !configKeyRe.MatchString(k) {
		return errors.New(
			"key must start with a letter, digit, or underscore and contain only letters, digits, dots, underscores, or hyphens",
		)
	}
	return nil
}

// ConfigActivityEntry is one row of the config activity log. It records the
// key name, encrypted flag, and new-value length only; never the value.
type ConfigActivityEntry struct {
	ID          int64     `json:"id"           db:"id"`
	KeyName     string    `json:"key_name"     db:"key_name"`
	Action      string    `json:"action"       db:"action"`
	Encrypted   bool      `json:"encrypted"    db:"encrypted"`
	ValueLength int       `json:"value_length" db:"value_length"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}
