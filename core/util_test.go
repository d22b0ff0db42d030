package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanString("  Jane Doe \n"))
	assert.Equal(t, "jane@test.test", CleanString(" Jane@Test.TEST ", true))
	assert.Equal(t, "", CleanString("   "))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{name: "short", s: "hello", n: 10, want: "hello"},
		{name: "exact", s: "hello", n: 5, want: "hello"},
		{name: "long", s: "hello world", n: 5, want: "hello..."},
		{name: "multibyte", s: "héllo wörld", n: 7, want: "héllo w..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.s, tt.n, "..."))
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    time.Time
		wantErr bool
	}{
		{name: "date", s: "2024-10-20", want: time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)},
		{name: "padded date", s: " 2024-10-20 ", want: time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)},
		{name: "utc timestamp", s: "2024-10-18T09:00:00Z", want: time.Date(2024, 10, 18, 9, 0, 0, 0, time.UTC)},
		{name: "offset timestamp", s: "2024-10-20T16:00:00+02:00", want: time.Date(2024, 10, 20, 14, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", s: "2024-10-20T16:00:00.5Z", want: time.Date(2024, 10, 20, 16, 0, 0, 5e8, time.UTC)},
		{name: "word", s: "tomorrow", wantErr: true},
		{name: "impossible date", s: "2024-02-30", wantErr: true},
		{name: "empty", s: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.s)
			if tt.wantErr {
				assert.Equal(t, errInvalidDate, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestStartOfDay(t *testing.T) {
	late := time.Date(2024, 10, 20, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))
	assert.Equal(t, time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC), StartOfDay(late))
	assert.Equal(t, time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC), StartOfDay(time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)))
}

func TestNullTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantValid bool
		want      time.Time
		wantErr   bool
	}{
		{name: "null", data: `null`},
		{name: "empty", data: `""`},
		{name: "blank", data: `"  "`},
		{name: "date", data: `"2024-10-20"`, wantValid: true, want: time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)},
		{name: "timestamp", data: `"2024-10-20T16:00:00+02:00"`, wantValid: true, want: time.Date(2024, 10, 20, 14, 0, 0, 0, time.UTC)},
		{name: "garbage", data: `"soon"`, wantErr: true},
		{name: "number", data: `42`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload struct {
				Due NullTime `json:"due"`
			}
			payload.Due = NullTimeFrom(time.Now()) // overwritten, even by null

			err := json.Unmarshal([]byte(`{"due": `+tt.data+`}`), &payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, payload.Due.Valid)
			if tt.wantValid {
				assert.True(t, tt.want.Equal(payload.Due.Time.Time))
			}
		})
	}
}
