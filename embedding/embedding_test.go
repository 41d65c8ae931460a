package embedding

import (
	"context"
	"testing"

	"github.com/rushteam/convkit/core"
	"github.com/rushteam/convkit/store"
)

func testSpecs() []core.FeatureSpec {
	return []core.FeatureSpec{
		{Name: "user_age_bucket", VocabSize: 10, EmbedDim: 4, Side: core.SideUser},
		{Name: "item_category", VocabSize: 50, EmbedDim: 4, Side: core.SideItem},
	}
}

func TestLayer_LookupShape(t *testing.T) {
	l, err := NewLayer(testSpecs(), 1)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	batch := core.Batch{
		"user_age_bucket": {0, 3, 9},
		"item_category":   {1, 2, 49},
	}
	out, err := l.Lookup(batch, testSpecs())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("batch dim = %d, want 3", len(out))
	}
	for b := range out {
		if len(out[b]) != 2 {
			t.Fatalf("feature dim = %d, want 2", len(out[b]))
		}
		for f := range out[b] {
			if len(out[b][f]) != 4 {
				t.Fatalf("embed dim = %d, want 4", len(out[b][f]))
			}
		}
	}
}

func TestLayer_DeterministicInit(t *testing.T) {
	l1, err := NewLayer(testSpecs(), 7)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	l2, err := NewLayer(testSpecs(), 7)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	t1, _ := l1.Table("item_category")
	t2, _ := l2.Table("item_category")
	for i := range t1 {
		for j := range t1[i] {
			if t1[i][j] != t2[i][j] {
				t.Fatalf("tables diverge at [%d][%d]: %v vs %v", i, j, t1[i][j], t2[i][j])
			}
		}
	}

	l3, err := NewLayer(testSpecs(), 8)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	t3, _ := l3.Table("item_category")
	same := true
	for i := range t1 {
		for j := range t1[i] {
			if t1[i][j] != t3[i][j] {
				same = false
			}
		}
	}
	if same {
		t.Error("different seeds produced identical tables")
	}
}

func TestLayer_OutOfVocabBucketing(t *testing.T) {
	l, err := NewLayer(testSpecs(), 1)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	// 越界/负值/非整数都必须落到表内，不得 panic
	batch := core.Batch{
		"user_age_bucket": {999, -1, 3.5},
		"item_category":   {0, 0, 0},
	}
	out, err := l.Lookup(batch, testSpecs())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("batch dim = %d, want 3", len(out))
	}

	// 同一越界取值必须稳定地落在同一桶位（哈希确定性）
	again, err := l.Lookup(batch, testSpecs())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	for j := range out[0][0] {
		if out[0][0][j] != again[0][0][j] {
			t.Fatal("out-of-vocab bucketing is not deterministic")
		}
	}
}

func TestLayer_LookupErrors(t *testing.T) {
	l, err := NewLayer(testSpecs(), 1)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	t.Run("missing feature", func(t *testing.T) {
		batch := core.Batch{"user_age_bucket": {1}}
		if _, err := l.Lookup(batch, testSpecs()); !core.IsNotFound(err) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("ragged columns", func(t *testing.T) {
		batch := core.Batch{
			"user_age_bucket": {1, 2},
			"item_category":   {1},
		}
		if _, err := l.Lookup(batch, testSpecs()); !core.IsInvalidInput(err) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})
}

func TestLayer_SetTableValidation(t *testing.T) {
	l, err := NewLayer(testSpecs(), 1)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	if err := l.SetTable("unknown", [][]float64{{1}}); !core.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	bad := make([][]float64, 10)
	for i := range bad {
		bad[i] = make([]float64, 3) // dim 3 != 4
	}
	if err := l.SetTable("user_age_bucket", bad); !core.IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestSaveLoadTables_Roundtrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	src, err := NewLayer(testSpecs(), 42)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	if err := SaveTables(ctx, s, "esmm_v1", src); err != nil {
		t.Fatalf("SaveTables: %v", err)
	}

	dst, err := NewLayer(testSpecs(), 1) // 不同种子，装载后应与 src 一致
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	if err := LoadTables(ctx, s, "esmm_v1", dst); err != nil {
		t.Fatalf("LoadTables: %v", err)
	}

	for _, name := range []string{"user_age_bucket", "item_category"} {
		want, _ := src.Table(name)
		got, _ := dst.Table(name)
		for i := range want {
			for j := range want[i] {
				if got[i][j] != want[i][j] {
					t.Fatalf("table %q diverges at [%d][%d]: %v vs %v", name, i, j, got[i][j], want[i][j])
				}
			}
		}
	}
}

func TestLoadTables_MissingKey(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	l, err := NewLayer(testSpecs(), 1)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	if err := LoadTables(ctx, s, "nope", l); !core.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
