package model

import (
	"math"
	"testing"

	"github.com/rushteam/convkit/core"
)

func testUserSpecs(dim int) []core.FeatureSpec {
	return []core.FeatureSpec{
		{Name: "user_age_bucket", VocabSize: 10, EmbedDim: dim, Side: core.SideUser},
		{Name: "user_gender", VocabSize: 3, EmbedDim: dim, Side: core.SideUser},
	}
}

func testItemSpecs(dim int) []core.FeatureSpec {
	return []core.FeatureSpec{
		{Name: "item_category", VocabSize: 100, EmbedDim: dim, Side: core.SideItem},
	}
}

func testTower() TowerConfig {
	return TowerConfig{HiddenDims: []int{16, 8}, CrossLayers: 1}
}

func testBatch(n int) core.Batch {
	b := core.Batch{
		"user_age_bucket": make([]float64, n),
		"user_gender":     make([]float64, n),
		"item_category":   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		b["user_age_bucket"][i] = float64(i % 10)
		b["user_gender"][i] = float64(i % 3)
		b["item_category"][i] = float64((i * 7) % 100)
	}
	return b
}

func TestDCN4ESMM_OutputShapeAndRange(t *testing.T) {
	m, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4ESMM: %v", err)
	}

	if got := m.TowerDims(); got != 12 {
		t.Fatalf("TowerDims = %d, want 12 (2*4 + 1*4)", got)
	}

	out, err := m.Predict(testBatch(5))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("batch size = %d, want 5", len(out))
	}
	for i, row := range out {
		if len(row) != 3 {
			t.Fatalf("row %d has %d columns, want 3", i, len(row))
		}
		for c, v := range row {
			if v < ClipMin || v > ClipMax {
				t.Errorf("out[%d][%d] = %v out of (ClipMin, ClipMax)", i, c, v)
			}
		}
	}
}

func TestDCN4ESMM_CTCVRIsRawProduct(t *testing.T) {
	m, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4ESMM: %v", err)
	}

	batch := testBatch(7)
	out, err := m.Predict(batch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// ctcvr 必须等于截断前的 cvr、ctr 乘积（乘积本身只截断一次）
	raw, _, err := m.forward(batch)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for i := range out {
		want := Clip(raw[0][i] * raw[1][i])
		if math.Abs(out[i][2]-want) > 1e-12 {
			t.Errorf("out[%d][2] = %v, want clip(raw_cvr*raw_ctr) = %v", i, out[i][2], want)
		}
	}
}

func TestDCN4DCMT_ColumnOrder(t *testing.T) {
	m, err := NewDCN4DCMT(testUserSpecs(4), testItemSpecs(4), testTower(), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4DCMT: %v", err)
	}

	wantHeads := []string{"cvr", "counterfactual_cvr", "ctr", "ctcvr"}
	heads := m.Heads()
	if len(heads) != len(wantHeads) {
		t.Fatalf("Heads() = %v, want %v", heads, wantHeads)
	}
	for i := range wantHeads {
		if heads[i] != wantHeads[i] {
			t.Fatalf("Heads()[%d] = %q, want %q", i, heads[i], wantHeads[i])
		}
	}

	out, err := m.Predict(testBatch(3))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i, row := range out {
		if len(row) != 4 {
			t.Fatalf("row %d has %d columns, want 4", i, len(row))
		}
	}

	// ctcvr（末列）仍是 cvr×ctr，反事实塔不参与乘积
	raw, _, err := m.forward(testBatch(3))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	for i := range out {
		want := Clip(raw[0][i] * raw[2][i])
		if math.Abs(out[i][3]-want) > 1e-12 {
			t.Errorf("out[%d][3] = %v, want clip(cvr*ctr) = %v", i, out[i][3], want)
		}
	}
}

func TestDCN4DR_BatchOne(t *testing.T) {
	m, err := NewDCN4DR(testUserSpecs(4), testItemSpecs(4), testTower(), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4DR: %v", err)
	}

	wantHeads := []string{"cvr", "ctr", "ctcvr", "imputation"}
	heads := m.Heads()
	for i := range wantHeads {
		if heads[i] != wantHeads[i] {
			t.Fatalf("Heads() = %v, want %v", heads, wantHeads)
		}
	}

	out, err := m.Predict(testBatch(1))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out) != 1 || len(out[0]) != 4 {
		t.Fatalf("output shape = (%d,%d), want (1,4)", len(out), len(out[0]))
	}
	for c, v := range out[0] {
		if v < ClipMin || v > ClipMax {
			t.Errorf("out[0][%d] = %v out of (ClipMin, ClipMax)", c, v)
		}
	}
}

func TestMultiTask_Determinism(t *testing.T) {
	build := func() *MultiTaskDCN {
		m, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), testTower(), testTower(), WithSeed(99))
		if err != nil {
			t.Fatalf("NewDCN4ESMM: %v", err)
		}
		return m
	}
	m1, m2 := build(), build()

	batch := testBatch(6)
	out1, err := m1.Predict(batch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	out2, err := m2.Predict(batch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := range out1 {
		for c := range out1[i] {
			if out1[i][c] != out2[i][c] {
				t.Errorf("out1[%d][%d] = %v != out2[%d][%d] = %v", i, c, out1[i][c], i, c, out2[i][c])
			}
		}
	}

	// 同一模型重复调用也必须逐位一致（纯函数，无隐藏状态）
	out3, err := m1.Predict(batch)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := range out1 {
		for c := range out1[i] {
			if out1[i][c] != out3[i][c] {
				t.Errorf("repeated call diverged at [%d][%d]: %v vs %v", i, c, out1[i][c], out3[i][c])
			}
		}
	}
}

func TestMultiTask_ItemChangeKeepsShape(t *testing.T) {
	m, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4ESMM: %v", err)
	}

	base := testBatch(4)
	out1, err := m.Predict(base)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// 只改物品侧取值：形状不变，输出值变化
	changed := testBatch(4)
	for i := range changed["item_category"] {
		changed["item_category"][i] = float64((i*13 + 5) % 100)
	}
	out2, err := m.Predict(changed)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out2) != len(out1) || len(out2[0]) != len(out1[0]) {
		t.Fatalf("shape changed: (%d,%d) vs (%d,%d)", len(out2), len(out2[0]), len(out1), len(out1[0]))
	}
	same := true
	for i := range out1 {
		for c := range out1[i] {
			if out1[i][c] != out2[i][c] {
				same = false
			}
		}
	}
	if same {
		t.Error("changing item features did not change any output")
	}

	// 改 batch size 只改变首维
	out3, err := m.Predict(testBatch(9))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(out3) != 9 || len(out3[0]) != 3 {
		t.Fatalf("output shape = (%d,%d), want (9,3)", len(out3), len(out3[0]))
	}
}

func TestMultiTask_ConfigValidation(t *testing.T) {
	tower := testTower()

	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "heterogeneous user embed_dim",
			build: func() error {
				user := []core.FeatureSpec{
					{Name: "a", VocabSize: 10, EmbedDim: 4, Side: core.SideUser},
					{Name: "b", VocabSize: 10, EmbedDim: 8, Side: core.SideUser},
				}
				_, err := NewDCN4ESMM(user, testItemSpecs(4), tower, tower)
				return err
			},
		},
		{
			name: "empty item features",
			build: func() error {
				_, err := NewDCN4ESMM(testUserSpecs(4), nil, tower, tower)
				return err
			},
		},
		{
			name: "duplicate head name",
			build: func() error {
				_, err := NewMultiTaskDCN("dup", testUserSpecs(4), testItemSpecs(4),
					[]Head{
						{Name: "cvr", Config: tower, InCTCVR: true},
						{Name: "cvr", Config: tower, InCTCVR: true},
					},
					[]string{"cvr", HeadCTCVR})
				return err
			},
		},
		{
			name: "ctcvr without product heads",
			build: func() error {
				_, err := NewMultiTaskDCN("noprod", testUserSpecs(4), testItemSpecs(4),
					[]Head{
						{Name: "cvr", Config: tower, InCTCVR: true},
						{Name: "aux", Config: tower},
					},
					[]string{"cvr", "aux", HeadCTCVR})
				return err
			},
		},
		{
			name: "output column without head",
			build: func() error {
				_, err := NewMultiTaskDCN("badcol", testUserSpecs(4), testItemSpecs(4),
					[]Head{
						{Name: "cvr", Config: tower, InCTCVR: true},
						{Name: "ctr", Config: tower, InCTCVR: true},
					},
					[]string{"cvr", "ctr", "gmv"})
				return err
			},
		},
		{
			name: "unsupported activation",
			build: func() error {
				bad := TowerConfig{HiddenDims: []int{8}, Activation: "swish"}
				_, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), bad, tower)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !core.IsInvalidConfig(err) {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}

func TestPredict_InputErrors(t *testing.T) {
	m, err := NewDCN4ESMM(testUserSpecs(4), testItemSpecs(4), testTower(), testTower())
	if err != nil {
		t.Fatalf("NewDCN4ESMM: %v", err)
	}

	t.Run("missing feature", func(t *testing.T) {
		batch := testBatch(3)
		delete(batch, "item_category")
		if _, err := m.Predict(batch); !core.IsNotFound(err) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("ragged batch", func(t *testing.T) {
		batch := testBatch(3)
		batch["user_gender"] = batch["user_gender"][:2]
		if _, err := m.Predict(batch); !core.IsInvalidInput(err) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})
}
