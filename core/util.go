package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const DateLayout = "2006-01-02"

var errInvalidDate = errors.New("must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Truncate returns the first n runes of s followed by suffix, or s unchanged when it is short enough.
func Truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}

// ProjectRoot walks up from the working directory to the directory holding go.mod.
// go test runs in the package directory, so relative paths cannot be trusted.
// Falls back to the working directory when no go.mod is found (e.g. a deployed binary).
func ProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

// ParseTime accepts either a calendar date (YYYY-MM-DD, midnight UTC) or an RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInvalidDate
}

// StartOfDay truncates t to midnight UTC of its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NullTime is a null.Time whose JSON form may also be a plain date or an empty string (null).
type NullTime struct {
	null.Time
}

func NullTimeFrom(t time.Time) NullTime {
	return NullTime{null.TimeFrom(t)}
}

func (t *NullTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding time")
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		t.Time = null.Time{}
		return nil
	}
	tm, err := ParseTime(*s)
	if err != nil {
		return err
	}
	t.Time = null.TimeFrom(tm)
	return nil
}
