package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/convkit/core"
)

// 预训练嵌入表通过 core.Store 持久化（内存/Redis），JSON 编码。
// 训练侧按 TableKey 约定写入，在线侧启动时 LoadTables 批量拉取。

// tableRecord 是嵌入表的持久化格式。
type tableRecord struct {
	Feature   string      `json:"feature"`
	VocabSize int         `json:"vocab_size"`
	EmbedDim  int         `json:"embed_dim"`
	Rows      [][]float64 `json:"rows"`
}

// TableKey 返回嵌入表在 Store 中的 key，约定格式 "emb:{layer}:{feature}"。
func TableKey(layer, feature string) string {
	return fmt.Sprintf("emb:%s:%s", layer, feature)
}

// SaveTables 把 Layer 的全部嵌入表写入 Store。
func SaveTables(ctx context.Context, s core.Store, layerName string, l *Layer) error {
	kvs := make(map[string][]byte, len(l.tables))
	for name, table := range l.tables {
		spec := l.specs[name]
		rec := tableRecord{
			Feature:   name,
			VocabSize: spec.VocabSize,
			EmbedDim:  spec.EmbedDim,
			Rows:      table,
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal table %q: %w", name, err)
		}
		kvs[TableKey(layerName, name)] = data
	}
	return s.BatchSet(ctx, kvs)
}

// LoadTables 从 Store 批量拉取预训练嵌入表并装入 Layer。
// 任一特征缺失或形状与 spec 不符都返回错误（fail-fast，不做部分装载）。
func LoadTables(ctx context.Context, s core.Store, layerName string, l *Layer) error {
	keys := make([]string, 0, len(l.specs))
	keyToFeature := make(map[string]string, len(l.specs))
	for name := range l.specs {
		key := TableKey(layerName, name)
		keys = append(keys, key)
		keyToFeature[key] = name
	}

	kvs, err := s.BatchGet(ctx, keys)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	loaded := make(map[string][][]float64, len(keys))
	for _, key := range keys {
		name := keyToFeature[key]
		data, ok := kvs[key]
		if !ok {
			return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeNotFound,
				fmt.Sprintf("embedding: pretrained table for feature %q not found (key %s)", name, key))
		}
		var rec tableRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("unmarshal table %q: %w", name, err)
		}
		loaded[name] = rec.Rows
	}

	// 全部解析通过后再替换，避免半装载状态
	for name, rows := range loaded {
		if err := l.SetTable(name, rows); err != nil {
			return err
		}
	}
	return nil
}
