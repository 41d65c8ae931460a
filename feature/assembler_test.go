package feature

import (
	"testing"

	"github.com/rushteam/convkit/core"
)

func assemblerSpecs() (user, item []core.FeatureSpec) {
	user = []core.FeatureSpec{
		{Name: "user_age_bucket", VocabSize: 10, EmbedDim: 4, Side: core.SideUser},
		{Name: "user_city", VocabSize: 100, EmbedDim: 4, Side: core.SideUser},
	}
	item = []core.FeatureSpec{
		{Name: "item_category", VocabSize: 50, EmbedDim: 4, Side: core.SideItem},
	}
	return user, item
}

func TestAssembler_Assemble(t *testing.T) {
	user, item := assemblerSpecs()

	enc := NewLabelEncoder(map[string]map[string]int{
		"user_city": {"beijing": 0, "shanghai": 1, "hangzhou": 2},
	})
	a := NewAssembler(user, item, WithLabelEncoder(enc))

	rctx := &core.RecommendContext{
		UserID: "u_1001",
		Params: map[string]any{"user_age_bucket": 3},
		UserProfile: map[string]any{
			"user_city": "hangzhou",
		},
	}

	items := []*core.Item{
		{ID: 1, Features: map[string]float64{"item_category": 7}},
		{ID: 2, Features: map[string]float64{"item_category": 8}},
		{ID: 3, Features: map[string]float64{"item_category": 9}},
	}

	batch, err := a.Assemble(rctx, items)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got := batch.Len(); got != 3 {
		t.Fatalf("batch size = %d, want 3", got)
	}

	// 用户侧广播
	for i, v := range batch["user_age_bucket"] {
		if v != 3 {
			t.Errorf("user_age_bucket[%d] = %v, want 3", i, v)
		}
	}
	for i, v := range batch["user_city"] {
		if v != 2 {
			t.Errorf("user_city[%d] = %v, want 2 (hangzhou)", i, v)
		}
	}

	// 物品侧逐行
	wantCat := []float64{7, 8, 9}
	for i, v := range batch["item_category"] {
		if v != wantCat[i] {
			t.Errorf("item_category[%d] = %v, want %v", i, v, wantCat[i])
		}
	}
}

func TestAssembler_ItemMetaFallback(t *testing.T) {
	user, item := assemblerSpecs()
	enc := NewLabelEncoder(nil)
	enc.Put("item_category", "digital", 5)
	a := NewAssembler(user, item, WithLabelEncoder(enc))

	rctx := &core.RecommendContext{
		Params: map[string]any{"user_age_bucket": 1, "user_city": 0},
	}
	items := []*core.Item{
		{ID: 1, Meta: map[string]any{"item_category": "digital"}},
	}

	batch, err := a.Assemble(rctx, items)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if batch["item_category"][0] != 5 {
		t.Errorf("item_category[0] = %v, want 5 (digital)", batch["item_category"][0])
	}
}

func TestAssembler_Errors(t *testing.T) {
	user, item := assemblerSpecs()
	a := NewAssembler(user, item)

	rctx := &core.RecommendContext{
		Params: map[string]any{"user_age_bucket": 1, "user_city": 0},
	}

	t.Run("empty items", func(t *testing.T) {
		if _, err := a.Assemble(rctx, nil); !core.IsInvalidInput(err) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})

	t.Run("missing user feature", func(t *testing.T) {
		bad := &core.RecommendContext{Params: map[string]any{"user_age_bucket": 1}}
		items := []*core.Item{{ID: 1, Features: map[string]float64{"item_category": 1}}}
		if _, err := a.Assemble(bad, items); !core.IsNotFound(err) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("missing item feature", func(t *testing.T) {
		items := []*core.Item{{ID: 9}}
		if _, err := a.Assemble(rctx, items); !core.IsNotFound(err) {
			t.Fatalf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("unencodable string without encoder", func(t *testing.T) {
		items := []*core.Item{{ID: 1, Meta: map[string]any{"item_category": "digital"}}}
		if _, err := a.Assemble(rctx, items); !core.IsInvalidInput(err) {
			t.Fatalf("expected INVALID_INPUT, got %v", err)
		}
	})
}

func TestLabelEncoder_Encode(t *testing.T) {
	enc := NewLabelEncoder(map[string]map[string]int{
		"gender": {"male": 0, "female": 1},
	})

	if v, ok := enc.Encode("gender", "female"); !ok || v != 1 {
		t.Errorf("Encode(gender, female) = (%v, %v), want (1, true)", v, ok)
	}
	if _, ok := enc.Encode("gender", "other"); ok {
		t.Error("Encode(gender, other) should miss")
	}
	if _, ok := enc.Encode("unknown", "x"); ok {
		t.Error("Encode(unknown, x) should miss")
	}
}
