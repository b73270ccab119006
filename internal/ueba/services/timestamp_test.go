package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		raw  string
	}{
		{"초 단위", "2024-04-01 10:00:00"},
		{"ISO T 구분", "2024-04-01T10:00:00"},
		{"RFC3339", "2024-04-01T10:00:00Z"},
		{"분 단위", "2024-04-01 10:00"},
		{"슬래시 연월일", "2024/04/01 10:00:00"},
		{"슬래시 월일연", "04/01/2024 10:00"},
		{"월 약어", "01-Apr-2024 10:00:00"},
		{"epoch 초", "1711965600"},
		{"epoch 밀리초", "1711965600000"},
		{"앞뒤 공백", "  2024-04-01 10:00:00 "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.raw, time.UTC)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	t.Run("로컬 타임존 기준", func(t *testing.T) {
		kst := time.FixedZone("KST", 9*3600)
		got, err := ParseTimestamp("2024-04-01 10:00", kst)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Hour())
		assert.True(t, want.Add(-9*time.Hour).Equal(got))
	})

	for _, bad := range []string{"", "not-a-date", "bad-timestamp"} {
		_, err := ParseTimestamp(bad, time.UTC)
		assert.Error(t, err, "%q", bad)
	}
}

func TestNormalize_TimestampFormats(t *testing.T) {
	n := newTestNormalizer()
	for _, ts := range []string{
		"2024-04-01 10:00",
		"2024/04/01 10:00:00",
		"04/01/2024 10:00",
		"01-Apr-2024 10:00:00",
		"1711965600",
	} {
		t.Run(ts, func(t *testing.T) {
			batch, err := n.Normalize("x", strings.NewReader("timestamp,username\n"+ts+",a\n"))
			require.NoError(t, err)
			require.Len(t, batch.Events, 1)
			assert.Zero(t, batch.Dropped)
			assert.Equal(t, 10, batch.Events[0].Timestamp.Hour())
			assert.Equal(t, "2024-04-01T10:00:00Z", batch.Events[0].Values[0])
		})
	}
}
