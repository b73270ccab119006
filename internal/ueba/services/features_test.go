package services

import (
	"testing"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatures(t *testing.T) {
	events := []models.Event{
		event("2024-01-01 09:15:00", "1.1.1.1", "alice", "login", "FAILURE"),
		event("2024-01-02 23:00:00", "2.2.2.2", "alice", "login", "success"),
		event("2024-01-07 03:00:00", "1.1.1.1", "bob", "logout", "failure"),
		event("2024-01-03 12:00:00", "1.1.1.1", "alice", "logout", "success"),
	}
	events[2].Geo.Country = "KR"

	out := BuildFeatures(events)
	require.Len(t, out, 4)

	// 2024-01-01 은 월요일
	assert.Equal(t, 9, out[0].Features.Hour)
	assert.Equal(t, 0, out[0].Features.DayOfWeek)
	assert.Equal(t, 6, out[2].Features.DayOfWeek)

	for _, i := range []int{0, 1, 3} {
		assert.Equal(t, 3, out[i].Features.UserEventCount)
		assert.Equal(t, 1, out[i].Features.UserFailedCount)
		assert.Equal(t, 2, out[i].Features.UserUniqueIPs)
		assert.Equal(t, models.Unknown, out[i].Features.Country)
	}
	assert.Equal(t, 1, out[2].Features.UserEventCount)
	assert.Equal(t, 1, out[2].Features.UserFailedCount)
	assert.Equal(t, 1, out[2].Features.UserUniqueIPs)
	assert.Equal(t, "KR", out[2].Features.Country)

	// 원본 이벤트 필드 유지
	assert.Equal(t, "FAILURE", out[0].Status)
}

func TestFeatureColumns(t *testing.T) {
	assert.Equal(t, []string{
		"event_type", "status", "country",
		"hour", "user_event_count", "user_failed_count", "user_unique_ips",
	}, FeatureColumns())
}
