package attendance

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alloyapp/alloy/core"
)

func Test_computeStats(t *testing.T) {
	tests := []struct {
		total, attended int
		want            float64
	}{
		{total: 0, attended: 0, want: 0},
		{total: 4, attended: 3, want: 75},
		{total: 3, attended: 1, want: 33.33},
		{total: 3, attended: 2, want: 66.67},
		{total: 7, attended: 7, want: 100},
	}
	for _, tt := range tests {
		got := computeStats(tt.total, tt.attended)
		assert.Equal(t, tt.want, got.Percentage, "%d/%d", tt.attended, tt.total)
		assert.Equal(t, tt.total, got.TotalClasses)
		assert.Equal(t, tt.attended, got.AttendedClasses)
	}
}

func TestMark_Validate(t *testing.T) {
	validate := validator.New()
	NowFunc = func() time.Time { return time.Date(2024, 10, 20, 22, 15, 0, 0, time.UTC) }
	defer func() { NowFunc = time.Now }()

	tests := []struct {
		name     string
		mark     Mark
		wantDate time.Time
		wantFld  string
	}{
		{name: "today", mark: Mark{SubjectID: "s", Status: "attended"}, wantDate: time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)},
		{name: "date", mark: Mark{SubjectID: "s", Status: " Missed ", Date: "2024-10-01"}, wantDate: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{name: "timestamp", mark: Mark{SubjectID: "s", Status: "missed", Date: "2024-10-01T23:30:00-03:00"}, wantDate: time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)},
		{name: "bad date", mark: Mark{SubjectID: "s", Status: "missed", Date: "yesterday"}, wantFld: "date"},
		{name: "bad status", mark: Mark{SubjectID: "s", Status: "late"}, wantFld: "Status"},
		{name: "no subject", mark: Mark{Status: "attended"}, wantFld: "SubjectID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.mark
			err := m.Validate(validate)
			switch tt.wantFld {
			case "":
				require.NoError(t, err)
				assert.Equal(t, tt.wantDate, m.date)
				assert.Equal(t, core.CleanString(tt.mark.Status, true), m.Status)
			case "date":
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
				assert.Equal(t, "date", verr.Fields[0].Field)
			default:
				verrs, ok := err.(validator.ValidationErrors)
				require.True(t, ok, "want validator.ValidationErrors, got %v", err)
				assert.Equal(t, tt.wantFld, verrs[0].Field())
			}
		})
	}
}
