package messages

import (
	"encoding/json"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
)

// accepted ISO-8601 variants in the order they are tried
var timeLayouts = []string{
	`2006-01-02 15:04:05.999999999Z07:00`,
	`2006-01-02 15:04:05Z07:00`,
	`2006-01-02T15:04:05.999999999Z07:00`,
	`2006-01-02T15:04:05Z07:00`,
}

// ParseTime parses a timestamp in any of the accepted layouts. The first
// layout which parses wins.
func ParseTime(value string) (time.Time, error) {
	for _, l := range timeLayouts {
		t, err := time.Parse(l, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.DateFormatError{Value: value}
}

// FormatTime encodes as RFC3339 in UTC without fractional seconds
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type Time struct {
	time.Time
}

func Now() Time {
	return Time{Time: time.Now().UTC().Truncate(time.Second)}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(t.Time))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}

	t.Time = parsed
	return nil
}
