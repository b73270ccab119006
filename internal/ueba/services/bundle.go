package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const bundleFormatVersion = 1

// Bundle: 학습 산출물 {모델, 인코더, 피처 컬럼 순서}. 생성 후 수정하지 않는다
type Bundle struct {
	ID             string           `json:"id"`
	FormatVersion  int              `json:"format_version"`
	CreatedAt      time.Time        `json:"created_at"`
	TrainingSource string           `json:"training_source"`
	TrainingRows   int              `json:"training_rows"`
	FeatureColumns []string         `json:"feature_columns"`
	Encoder        *Encoder         `json:"encoder"`
	Model          *IsolationForest `json:"model"`
}

func NewBundle(source string, rows int, enc *Encoder, model *IsolationForest) *Bundle {
	return &Bundle{
		ID:             uuid.NewString(),
		FormatVersion:  bundleFormatVersion,
		CreatedAt:      time.Now().UTC(),
		TrainingSource: source,
		TrainingRows:   rows,
		FeatureColumns: enc.Columns(),
		Encoder:        enc,
		Model:          model,
	}
}

// Validate: 인코더/모델/컬럼 목록이 서로 일치하는지 확인
func (b *Bundle) Validate() error {
	if b.Encoder == nil || b.Model == nil {
		return errors.Wrap(ErrInvalidBundle, "missing encoder or model")
	}
	if b.FormatVersion != bundleFormatVersion {
		return errors.Wrapf(ErrInvalidBundle, "format version %d, want %d", b.FormatVersion, bundleFormatVersion)
	}
	cols := b.Encoder.Columns()
	if len(cols) != len(b.FeatureColumns) {
		return errors.Wrap(ErrInvalidBundle, "feature column list does not match encoder")
	}
	for i := range cols {
		if cols[i] != b.FeatureColumns[i] {
			return errors.Wrapf(ErrInvalidBundle, "feature column %d is %q, encoder has %q", i, b.FeatureColumns[i], cols[i])
		}
	}
	if b.Encoder.Width() != b.Model.Features {
		return errors.Wrapf(ErrInvalidBundle, "encoder width %d, model expects %d", b.Encoder.Width(), b.Model.Features)
	}
	if err := b.Model.CheckTrees(); err != nil {
		return errors.Wrapf(ErrInvalidBundle, "%v", err)
	}
	return nil
}

// SaveBundle: 같은 디렉터리 임시 파일에 쓰고 fsync 후 rename 으로 교체
func SaveBundle(path string, b *Bundle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create model dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp bundle")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := json.NewEncoder(tmp).Encode(b); err != nil {
		cleanup()
		return errors.Wrap(err, "encode bundle")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Wrap(err, "sync bundle")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close bundle")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "replace bundle %s", path)
	}
	return nil
}

// LoadBundle: 파일이 없으면 ErrModelNotTrained
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrModelNotTrained, "bundle %s not found, run `train` first", path)
		}
		return nil, errors.Wrapf(err, "open bundle %s", path)
	}
	defer f.Close()

	var b Bundle
	if err := json.NewDecoder(f).Decode(&b); err != nil {
		return nil, errors.Wrapf(ErrInvalidBundle, "decode %s: %v", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "bundle %s", path)
	}
	return &b, nil
}

// BundleStore: 프로세스 내 현재 번들. 스코어링은 Current() 스냅샷 하나로 배치 전체를 처리
type BundleStore struct {
	path    string
	current atomic.Pointer[Bundle]
	logger  *zap.Logger
}

func NewBundleStore(path string, logger *zap.Logger) *BundleStore {
	return &BundleStore{path: path, logger: logger}
}

func (s *BundleStore) Path() string { return s.path }

// Load: 디스크에서 번들을 읽어 현재 번들로 설정
func (s *BundleStore) Load() (*Bundle, error) {
	b, err := LoadBundle(s.path)
	if err != nil {
		return nil, err
	}
	s.current.Store(b)
	s.logger.Info("[MODEL] 번들 로드", zap.String("id", b.ID), zap.String("path", s.path))
	return b, nil
}

// Current: 로드된 번들. 없으면 디스크에서 한 번 로드 시도
func (s *BundleStore) Current() (*Bundle, error) {
	if b := s.current.Load(); b != nil {
		return b, nil
	}
	return s.Load()
}

// Replace: 새 번들 파일 쓰기가 끝난 뒤에만 메모리 번들 교체
func (s *BundleStore) Replace(b *Bundle) error {
	if err := SaveBundle(s.path, b); err != nil {
		return err
	}
	prev := s.current.Swap(b)
	if prev != nil {
		s.logger.Info("[MODEL] 번들 교체", zap.String("prev", prev.ID), zap.String("id", b.ID))
	}
	return nil
}
