package classifier

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"phishguard/features"
)

// Node is one decision node stored in a flat slice. Leaves have Left == -1
// and carry the class distribution in Proba.
type Node struct {
	Feature   int        `json:"f"`
	Threshold float64    `json:"t"`
	Left      int        `json:"l"`
	Right     int        `json:"r"`
	Proba     [2]float64 `json:"p,omitempty"`
}

// Tree is a binary decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(v *features.Vector) [2]float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Proba
		}
		if float64(v[n.Feature]) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Forest is a random-forest ensemble. Probabilities are the mean of the
// per-tree leaf distributions; index 0 is Classes[0].
type Forest struct {
	Classes  [2]int   `json:"classes"`
	Features []string `json:"features"`
	Trees    []Tree   `json:"trees"`
	Accuracy float64  `json:"accuracy,omitempty"`
}

// PredictProba returns the class probabilities in Classes order.
func (f *Forest) PredictProba(v features.Vector) (float64, float64) {
	var sum [2]float64
	for i := range f.Trees {
		p := f.Trees[i].leaf(&v)
		sum[0] += p[0]
		sum[1] += p[1]
	}
	n := float64(len(f.Trees))
	return sum[0] / n, sum[1] / n
}

// Predict returns the label with the highest probability; ties go to
// Classes[0].
func (f *Forest) Predict(v features.Vector) int {
	p0, p1 := f.PredictProba(v)
	if p1 > p0 {
		return f.Classes[1]
	}
	return f.Classes[0]
}

func (f *Forest) validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	if f.Classes != [2]int{ClassPhishing, ClassLegitimate} {
		return fmt.Errorf("%w: unexpected classes %v", ErrInvalidModel, f.Classes)
	}
	if len(f.Features) != features.Size {
		return fmt.Errorf("%w: model expects %d features, extractor produces %d", ErrInvalidModel, len(f.Features), features.Size)
	}
	for i, name := range features.Names() {
		if f.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidModel, i, f.Features[i], name)
		}
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.Left < 0 {
				continue
			}
			if n.Feature < 0 || n.Feature >= features.Size ||
				n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d is malformed", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}

// Load reads and validates a forest artifact. Paths ending in .gz are
// gunzipped.
func Load(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
		defer gz.Close()
		r = gz
	}
	return Decode(r)
}

// Decode reads a forest from r and validates it.
func Decode(r io.Reader) (*Forest, error) {
	var f Forest
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidModel, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes the forest to path, gzipped when the path ends in .gz.
func (f *Forest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(file)
		w = gz
	}
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("flush model: %w", err)
		}
	}
	return file.Close()
}
