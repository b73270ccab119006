package services

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	training := writeFile(t, dir, "train.csv", trainingCSV("username"))
	store := NewBundleStore(filepath.Join(dir, "models", "bundle.json"), zap.NewNop())
	return NewService(newTestPipeline(), store, training, zap.NewNop(), opts...), dir
}

func TestService_ScoreBeforeTrain(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.ScoreReader(context.Background(), "new.csv", strings.NewReader(scoringCSV))
	assert.True(t, errors.Is(err, ErrModelNotTrained))

	// 입력 오류가 모델 없음보다 먼저 보고됨
	_, err = svc.ScoreFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestService_TrainThenScore(t *testing.T) {
	svc, dir := newTestService(t)

	bundle, err := svc.Train(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, svc.Store().Path())

	res, err := svc.ScoreFile(context.Background(), writeFile(t, dir, "new.csv", scoringCSV))
	require.NoError(t, err)
	assert.Equal(t, bundle.ID, res.Summary.BundleID)
}

func TestService_ConcurrentTrainAndScore(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Train(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Train(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ScoreReader(context.Background(), "new.csv", strings.NewReader(scoringCSV))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	// 디스크 번들과 메모리 번들이 일치
	cur, err := svc.Store().Current()
	require.NoError(t, err)
	onDisk, err := LoadBundle(svc.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, cur.ID, onDisk.ID)
}
