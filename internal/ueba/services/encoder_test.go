package services

import (
	"testing"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder(t *testing.T) {
	train := BuildFeatures([]models.Event{
		event("2024-01-01 09:00:00", "1.1.1.1", "alice", "logout", "success"),
		event("2024-01-01 10:00:00", "1.1.1.1", "alice", "login", "failure"),
	})
	enc, err := FitEncoder(train, CategoricalColumns, NumericColumns)
	require.NoError(t, err)

	assert.Equal(t, FeatureColumns(), enc.Columns())
	assert.Equal(t, []string{"login", "logout"}, enc.Categorical[0].Categories)
	assert.Equal(t, 2+2+1+4, enc.Width())
	assert.Equal(t, []string{
		"event_type=login", "event_type=logout",
		"status=failure", "status=success",
		"country=unknown",
		"hour", "user_event_count", "user_failed_count", "user_unique_ips",
	}, enc.FeatureNames())

	X, err := enc.Transform(train)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 1, 1, 9, 2, 1, 1}, X[0])
	assert.Equal(t, []float64{1, 0, 1, 0, 1, 10, 2, 1, 1}, X[1])

	t.Run("처음 보는 범주는 전부 0", func(t *testing.T) {
		unseen := BuildFeatures([]models.Event{event("2024-01-01 11:00:00", "1.1.1.1", "eve", "vpn", "success")})
		unseen[0].Features.Country = "US"
		X, err := enc.Transform(unseen)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0, 1, 0, 11, 1, 0, 1}, X[0])
	})

	t.Run("알 수 없는 컬럼", func(t *testing.T) {
		broken := &Encoder{Numeric: []string{"bytes_out"}}
		_, err := broken.Transform(train)
		assert.True(t, errors.Is(err, ErrFeatureMismatch))

		_, err = FitEncoder(train, []string{"device"}, nil)
		assert.Error(t, err)
	})
}
