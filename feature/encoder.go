package feature

import "fmt"

// LabelEncoder Label 编码（标签编码）
// 将类别映射为整数（0, 1, 2, ...），模型侧以该整数作为嵌入表下标。
type LabelEncoder struct {
	LabelMap map[string]map[string]int // 每个特征名对应的类别到整数的映射
}

// NewLabelEncoder 创建 Label 编码器
func NewLabelEncoder(labelMap map[string]map[string]int) *LabelEncoder {
	return &LabelEncoder{
		LabelMap: labelMap,
	}
}

// Encode 编码单个值（指定特征名）。
// 特征未注册词表或类别不在词表中时返回 (0, false)。
func (e *LabelEncoder) Encode(key string, value any) (float64, bool) {
	labelMap, ok := e.LabelMap[key]
	if !ok {
		return 0, false
	}
	valStr := fmt.Sprintf("%v", value)
	if label, ok := labelMap[valStr]; ok {
		return float64(label), true
	}
	return 0, false
}

// Put 注册一个类别映射（词表通常由训练侧导出，此方法用于测试/原型）。
func (e *LabelEncoder) Put(key, category string, index int) {
	if e.LabelMap == nil {
		e.LabelMap = make(map[string]map[string]int)
	}
	if e.LabelMap[key] == nil {
		e.LabelMap[key] = make(map[string]int)
	}
	e.LabelMap[key][category] = index
}
