package messages

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/stretchr/testify/require"
)

func TestParseTime_variants(t *testing.T) {
	want := time.Date(2020, 1, 2, 3, 4, 5, 678000000, time.UTC)

	for _, s := range []string{
		`2020-01-02T03:04:05.678Z`,
		`2020-01-02T03:04:05Z`,
		`2020-01-02 03:04:05.678Z`,
		`2020-01-02 03:04:05Z`,
	} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		require.True(t, got.Truncate(time.Second).Equal(want.Truncate(time.Second)), s)
	}

	got, err := ParseTime(`2020-01-02 03:04:05.678Z`)
	require.NoError(t, err)
	require.True(t, got.Equal(want))

	got, err = ParseTime(`2020-01-02T05:04:05+02:00`)
	require.NoError(t, err)
	require.True(t, got.Equal(want.Truncate(time.Second)))
}

func TestParseTime_unsupported(t *testing.T) {
	for _, s := range []string{`not-a-date`, ``, `2020-01-02`, `02/01/2020 03:04:05`} {
		_, err := ParseTime(s)
		require.ErrorIs(t, err, domain.ErrUnsupportedDateFormat, s)

		var dateErr *domain.DateFormatError
		require.ErrorAs(t, err, &dateErr)
		require.Equal(t, s, dateErr.Value)
	}
}

func TestTime_json(t *testing.T) {
	ts := Time{Time: time.Date(2021, 6, 7, 8, 9, 10, 500, time.FixedZone(`x`, 3600))}
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	require.Equal(t, `"2021-06-07T07:09:10Z"`, string(data))

	var decoded Time
	require.NoError(t, json.Unmarshal([]byte(`"2021-06-07 07:09:10.25Z"`), &decoded))
	require.Equal(t, 250*time.Millisecond, time.Duration(decoded.Nanosecond()))

	require.ErrorIs(t, json.Unmarshal([]byte(`"tomorrow"`), &decoded), domain.ErrUnsupportedDateFormat)
}
