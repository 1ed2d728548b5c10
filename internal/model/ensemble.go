package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"delivery-eta-service/internal/domain"
)

// treeNode is one node of an XGBoost JSON dump (Booster.get_dump(dump_format="json")).
type treeNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty"`
	No             int        `json:"no,omitempty"`
	Missing        int        `json:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty"`
	Children       []treeNode `json:"children,omitempty"`
}

type ensembleFile struct {
	Format      string     `json:"format"`
	NumFeatures int        `json:"num_features"`
	BaseScore   float64    `json:"base_score"`
	Trees       []treeNode `json:"trees"`
}

type flatNode struct {
	feature   int
	threshold float32
	yes       int
	no        int
	missing   int
	leaf      float64
	isLeaf    bool
}

// Ensemble is an additive tree ensemble: base score plus one leaf value per tree.
type Ensemble struct {
	numFeatures int
	baseScore   float64
	trees       [][]flatNode
	version     string
}

// LoadEnsemble reads an ensemble file from disk.
func LoadEnsemble(path, version string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load ensemble: %w", err)
	}
	defer f.Close()

	return DecodeEnsemble(f, version)
}

// DecodeEnsemble parses and validates an ensemble. Every split must reference a feature
// below num_features and every child reference must resolve.
func DecodeEnsemble(r io.Reader, version string) (*Ensemble, error) {
	var file ensembleFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode ensemble: %w", err)
	}
	if file.NumFeatures <= 0 {
		return nil, errors.New("decode ensemble: num_features must be positive")
	}
	if len(file.Trees) == 0 {
		return nil, errors.New("decode ensemble: no trees")
	}

	e := &Ensemble{
		numFeatures: file.NumFeatures,
		baseScore:   file.BaseScore,
		trees:       make([][]flatNode, 0, len(file.Trees)),
		version:     version,
	}
	for i := range file.Trees {
		tree, err := flatten(&file.Trees[i], file.NumFeatures)
		if err != nil {
			return nil, fmt.Errorf("decode ensemble: tree %d: %w", i, err)
		}
		e.trees = append(e.trees, tree)
	}
	return e, nil
}

// flatten indexes a tree by node id. Node 0 is the root.
func flatten(root *treeNode, numFeatures int) ([]flatNode, error) {
	byID := make(map[int]*treeNode)
	var walk func(n *treeNode) error
	walk = func(n *treeNode) error {
		if _, dup := byID[n.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		for i := range n.Children {
			if err := walk(&n.Children[i]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	if root.NodeID != 0 {
		return nil, fmt.Errorf("root node id is %d, want 0", root.NodeID)
	}

	maxID := 0
	for id := range byID {
		if id < 0 {
			return nil, fmt.Errorf("negative node id %d", id)
		}
		if id > maxID {
			maxID = id
		}
	}

	flat := make([]flatNode, maxID+1)
	present := make([]bool, maxID+1)
	for id, n := range byID {
		present[id] = true
		if n.Leaf != nil {
			flat[id] = flatNode{leaf: *n.Leaf, isLeaf: true}
			continue
		}
		feature, err := parseFeature(n.Split)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		if feature >= numFeatures {
			return nil, fmt.Errorf("node %d splits on feature %d, model has %d", id, feature, numFeatures)
		}
		missing := n.Missing
		if missing == 0 {
			missing = n.Yes
		}
		flat[id] = flatNode{
			feature:   feature,
			threshold: float32(n.SplitCondition),
			yes:       n.Yes,
			no:        n.No,
			missing:   missing,
		}
	}

	for id, n := range flat {
		if !present[id] || n.isLeaf {
			continue
		}
		for _, child := range []int{n.yes, n.no, n.missing} {
			if child <= id || child > maxID || !present[child] {
				return nil, fmt.Errorf("node %d references unknown child %d", id, child)
			}
		}
	}
	return flat, nil
}

// parseFeature accepts XGBoost's default names ("f12") and bare indices.
func parseFeature(split string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(split), "f")
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("unsupported split feature %q", split)
	}
	return idx, nil
}

func (e *Ensemble) NumFeatures() int { return e.numFeatures }
func (e *Ensemble) Version() string  { return e.version }

// Predict sums the leaf reached in every tree. NaN inputs follow the missing branch.
// Splits compare in float32, as XGBoost does.
func (e *Ensemble) Predict(vector []float64) (float64, error) {
	if len(vector) != e.numFeatures {
		return 0, &domain.ModelShapeError{Got: len(vector), Want: e.numFeatures}
	}

	sum := e.baseScore
	for _, tree := range e.trees {
		id := 0
		for !tree[id].isLeaf {
			n := tree[id]
			x := vector[n.feature]
			switch {
			case math.IsNaN(x):
				id = n.missing
			case float32(x) < n.threshold:
				id = n.yes
			default:
				id = n.no
			}
		}
		sum += tree[id].leaf
	}
	return sum, nil
}
