package services

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const eulerGamma = 0.5772156649015329

type ForestConfig struct {
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          int64
	// Workers <= 0 이면 CPU 수만큼 병렬 학습
	Workers int
}

// DefaultForestConfig: 학습 기본값 (200 trees, 256 samples, contamination 1%, seed 42)
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 200, MaxSamples: 256, Contamination: 0.01, Seed: 42}
}

// treeNode: Feature < 0 이면 leaf (Size = leaf에 도달한 학습 샘플 수)
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Size      int     `json:"n,omitempty"`
}

type isolationTree struct {
	Nodes []treeNode `json:"nodes"`
}

// IsolationForest is an immutable fitted ensemble.
//
// Raw signal convention: Decision returns higher values for more normal rows and
// negative values for rows beyond the contamination boundary fixed at fit time.
type IsolationForest struct {
	Trees         []isolationTree `json:"trees"`
	MaxSamples    int             `json:"max_samples"`
	Features      int             `json:"features"`
	Contamination float64         `json:"contamination"`
	Offset        float64         `json:"offset"`
	Seed          int64           `json:"seed"`
}

// averagePathLength: n개 샘플 BST의 평균 실패 탐색 경로 길이 c(n)
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

// FitIsolationForest: 배치 1회 학습. 트리별 seed를 먼저 뽑으므로 worker 수와 무관하게 결과가 같다.
func FitIsolationForest(ctx context.Context, X [][]float64, cfg ForestConfig) (*IsolationForest, error) {
	if len(X) == 0 {
		return nil, errors.New("cannot fit isolation forest on an empty matrix")
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d columns, want %d", i, len(row), width)
		}
	}
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultForestConfig().Trees
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultForestConfig().MaxSamples
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	samples := cfg.MaxSamples
	if samples > len(X) {
		samples = len(X)
	}
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(samples), 2))))

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	forest := &IsolationForest{
		Trees:         make([]isolationTree, cfg.Trees),
		MaxSamples:    samples,
		Features:      width,
		Contamination: cfg.Contamination,
		Seed:          cfg.Seed,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			idx := rng.Perm(len(X))[:samples]
			forest.Trees[i] = buildTree(X, idx, maxDepth, width, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores, err := forest.ScoreSamples(X)
	if err != nil {
		return nil, err
	}
	forest.Offset = percentile(scores, 100*cfg.Contamination)
	return forest, nil
}

func buildTree(X [][]float64, idx []int, maxDepth, width int, rng *rand.Rand) isolationTree {
	t := isolationTree{}
	var grow func(idx []int, depth int) int
	grow = func(idx []int, depth int) int {
		node := len(t.Nodes)
		t.Nodes = append(t.Nodes, treeNode{Feature: -1, Size: len(idx)})
		if depth >= maxDepth || len(idx) <= 1 {
			return node
		}
		// 분산이 없는 피처는 건너뛰고 무작위 순서로 분할 피처 선택
		for _, f := range rng.Perm(width) {
			lo, hi := X[idx[0]][f], X[idx[0]][f]
			for _, r := range idx[1:] {
				v := X[r][f]
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			if hi <= lo {
				continue
			}
			thr := lo + rng.Float64()*(hi-lo)
			if thr >= hi {
				thr = lo
			}
			split := partition(X, idx, f, thr)
			left := grow(idx[:split], depth+1)
			right := grow(idx[split:], depth+1)
			t.Nodes[node] = treeNode{Feature: f, Threshold: thr, Left: left, Right: right}
			return node
		}
		return node
	}
	grow(idx, 0)
	return t
}

// partition: idx를 x[f] <= thr 인 행이 앞에 오도록 재배치하고 경계를 반환
func partition(X [][]float64, idx []int, f int, thr float64) int {
	i, j := 0, len(idx)-1
	for i <= j {
		if X[idx[i]][f] <= thr {
			i++
			continue
		}
		idx[i], idx[j] = idx[j], idx[i]
		j--
	}
	return i
}

// checkStructure: 노드 인덱스/피처 범위 검사. 자식은 항상 부모보다 뒤에 있다 (전위 순서)
func (t *isolationTree) checkStructure(features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.Feature < 0 {
			if node.Size < 0 {
				return errors.Errorf("leaf %d has negative size %d", i, node.Size)
			}
			continue
		}
		if node.Feature >= features {
			return errors.Errorf("node %d splits on feature %d, model has %d", i, node.Feature, features)
		}
		for _, child := range []int{node.Left, node.Right} {
			if child <= i || child >= len(t.Nodes) {
				return errors.Errorf("node %d has child index %d out of range (%d nodes)", i, child, len(t.Nodes))
			}
		}
	}
	return nil
}

func (t *isolationTree) pathLength(x []float64) float64 {
	n, depth := 0, 0
	for {
		node := t.Nodes[n]
		if node.Feature < 0 {
			return float64(depth) + averagePathLength(node.Size)
		}
		if x[node.Feature] <= node.Threshold {
			n = node.Left
		} else {
			n = node.Right
		}
		depth++
	}
}

// CheckTrees: 역직렬화된 트리가 pathLength 순회에 안전한지 확인
func (f *IsolationForest) CheckTrees() error {
	if len(f.Trees) == 0 {
		return errors.New("model has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].checkStructure(f.Features); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

// ScoreSamples: 2^(-E[h(x)]/c(ψ)) 의 음수. 낮을수록 이상
func (f *IsolationForest) ScoreSamples(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.Wrap(ErrInvalidBundle, "isolation forest has no trees")
	}
	norm := averagePathLength(f.MaxSamples)
	if norm == 0 {
		norm = 1
	}
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != f.Features {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d columns, model expects %d", i, len(x), f.Features)
		}
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].pathLength(x)
		}
		mean := sum / float64(len(f.Trees))
		out[i] = -math.Pow(2, -mean/norm)
	}
	return out, nil
}

// Decision: ScoreSamples - Offset. 높을수록 정상, 0 미만이면 학습 시 contamination 경계 밖
func (f *IsolationForest) Decision(X [][]float64) ([]float64, error) {
	scores, err := f.ScoreSamples(X)
	if err != nil {
		return nil, err
	}
	for i := range scores {
		scores[i] -= f.Offset
	}
	return scores, nil
}

// percentile: numpy 기본(linear) 보간 백분위수
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
