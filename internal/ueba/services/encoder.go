package services

import (
	"sort"

	"github.com/markany/safepc-anomaly/internal/ueba/models"
	"github.com/pkg/errors"
)

// CategoryVocab: 학습 시점에 확정된 범주 목록 (정렬됨)
type CategoryVocab struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// Encoder is the fitted one-hot + passthrough transform. It is never refit after training.
type Encoder struct {
	Categorical []CategoryVocab `json:"categorical"`
	Numeric     []string        `json:"numeric"`
}

// FitEncoder: 학습 배치에서 범주 vocabulary를 만든다
func FitEncoder(events []models.EnrichedEvent, categorical, numeric []string) (*Encoder, error) {
	enc := &Encoder{Numeric: append([]string(nil), numeric...)}
	for _, col := range categorical {
		set := make(map[string]struct{})
		for i := range events {
			v, ok := categoricalValue(&events[i], col)
			if !ok {
				return nil, errors.Errorf("unknown categorical column %q", col)
			}
			set[v] = struct{}{}
		}
		cats := make([]string, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		enc.Categorical = append(enc.Categorical, CategoryVocab{Column: col, Categories: cats})
	}
	for _, col := range numeric {
		if _, ok := numericValue(&models.EnrichedEvent{}, col); !ok {
			return nil, errors.Errorf("unknown numeric column %q", col)
		}
	}
	return enc, nil
}

// Width: 인코딩 결과 행 벡터 길이
func (e *Encoder) Width() int {
	w := len(e.Numeric)
	for _, c := range e.Categorical {
		w += len(c.Categories)
	}
	return w
}

// Columns: 원본 피처 컬럼 순서 (범주형 → 수치형)
func (e *Encoder) Columns() []string {
	cols := make([]string, 0, len(e.Categorical)+len(e.Numeric))
	for _, c := range e.Categorical {
		cols = append(cols, c.Column)
	}
	return append(cols, e.Numeric...)
}

// FeatureNames: 인코딩 후 각 차원의 이름 (예: status=failure, hour)
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, c := range e.Categorical {
		for _, v := range c.Categories {
			names = append(names, c.Column+"="+v)
		}
	}
	return append(names, e.Numeric...)
}

// Transform: 학습된 vocabulary로 행렬 변환. 처음 보는 범주는 해당 컬럼 one-hot이 전부 0
func (e *Encoder) Transform(events []models.EnrichedEvent) ([][]float64, error) {
	index := make([]map[string]int, len(e.Categorical))
	for i, c := range e.Categorical {
		index[i] = make(map[string]int, len(c.Categories))
		for j, v := range c.Categories {
			index[i][v] = j
		}
	}

	width := e.Width()
	out := make([][]float64, len(events))
	for r := range events {
		row := make([]float64, width)
		offset := 0
		for i, c := range e.Categorical {
			v, ok := categoricalValue(&events[r], c.Column)
			if !ok {
				return nil, errors.Wrapf(ErrFeatureMismatch, "categorical column %q", c.Column)
			}
			if j, known := index[i][v]; known {
				row[offset+j] = 1
			}
			offset += len(c.Categories)
		}
		for _, col := range e.Numeric {
			v, ok := numericValue(&events[r], col)
			if !ok {
				return nil, errors.Wrapf(ErrFeatureMismatch, "numeric column %q", col)
			}
			row[offset] = v
			offset++
		}
		out[r] = row
	}
	return out, nil
}
