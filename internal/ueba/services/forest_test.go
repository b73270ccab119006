package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterWithOutlier: (0,0) 근처 정상 군집 + 마지막 행에 멀리 떨어진 점 하나
func clusterWithOutlier(n int) [][]float64 {
	rng := rand.New(rand.NewSource(7))
	X := make([][]float64, 0, n+1)
	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.NormFloat64(), rng.NormFloat64(), float64(i % 3)})
	}
	return append(X, []float64{40, -40, 1})
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(0))
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.Equal(t, 1.0, averagePathLength(2))
	assert.InDelta(t, 10.244770920, averagePathLength(256), 1e-6)
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 2.5, percentile(values, 50))
	assert.InDelta(t, 1.03, percentile(values, 1), 1e-9)
	assert.Equal(t, 4.0, percentile(values, 100))
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
}

func TestFitIsolationForest(t *testing.T) {
	X := clusterWithOutlier(500)
	cfg := ForestConfig{Trees: 100, MaxSamples: 256, Contamination: 0.01, Seed: 42}

	t.Run("worker 수와 무관하게 동일", func(t *testing.T) {
		cfg1, cfg8 := cfg, cfg
		cfg1.Workers, cfg8.Workers = 1, 8
		a, err := FitIsolationForest(context.Background(), X, cfg1)
		require.NoError(t, err)
		b, err := FitIsolationForest(context.Background(), X, cfg8)
		require.NoError(t, err)
		assert.Equal(t, a.Trees, b.Trees)
		assert.Equal(t, a.Offset, b.Offset)
	})

	t.Run("다른 seed 는 다른 트리", func(t *testing.T) {
		other := cfg
		other.Seed = 43
		a, err := FitIsolationForest(context.Background(), X, cfg)
		require.NoError(t, err)
		b, err := FitIsolationForest(context.Background(), X, other)
		require.NoError(t, err)
		assert.NotEqual(t, a.Trees, b.Trees)
	})

	t.Run("이상치가 가장 낮은 decision", func(t *testing.T) {
		f, err := FitIsolationForest(context.Background(), X, cfg)
		require.NoError(t, err)
		assert.Equal(t, 256, f.MaxSamples)
		assert.Equal(t, 3, f.Features)

		d, err := f.Decision(X)
		require.NoError(t, err)
		outlier := d[len(d)-1]
		assert.Less(t, outlier, 0.0)
		for _, v := range d[:len(d)-1] {
			assert.Less(t, outlier, v)
		}

		below := 0
		for _, v := range d {
			if v < 0 {
				below++
			}
		}
		assert.GreaterOrEqual(t, below, 1)
		assert.LessOrEqual(t, below, 6)
	})

	t.Run("score_samples 범위", func(t *testing.T) {
		f, err := FitIsolationForest(context.Background(), X, cfg)
		require.NoError(t, err)
		s, err := f.ScoreSamples(X)
		require.NoError(t, err)
		for _, v := range s {
			assert.True(t, v < 0 && v >= -1, "score %v", v)
		}
	})

	t.Run("샘플 수가 max_samples 보다 작음", func(t *testing.T) {
		f, err := FitIsolationForest(context.Background(), X[:10], cfg)
		require.NoError(t, err)
		assert.Equal(t, 10, f.MaxSamples)
	})

	t.Run("상수 행렬", func(t *testing.T) {
		flat := [][]float64{{1, 1}, {1, 1}, {1, 1}}
		f, err := FitIsolationForest(context.Background(), flat, cfg)
		require.NoError(t, err)
		d, err := f.Decision(flat)
		require.NoError(t, err)
		assert.Equal(t, d[0], d[1])
		assert.Equal(t, d[1], d[2])
	})

	t.Run("입력 오류", func(t *testing.T) {
		_, err := FitIsolationForest(context.Background(), nil, cfg)
		assert.Error(t, err)

		_, err = FitIsolationForest(context.Background(), [][]float64{{1, 2}, {1}}, cfg)
		assert.True(t, errors.Is(err, ErrFeatureMismatch))

		f, err := FitIsolationForest(context.Background(), X, cfg)
		require.NoError(t, err)
		_, err = f.Decision([][]float64{{1, 2}})
		assert.True(t, errors.Is(err, ErrFeatureMismatch))
	})

	t.Run("취소된 context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FitIsolationForest(ctx, X, cfg)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
