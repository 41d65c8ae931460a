package core

import "fmt"

// Batch 是一次前向计算的输入：特征名 -> 每个样本的取值。
//
// 取值已编码为 float64：类别特征为词表下标（label encoding 之后），
// 数值特征为原始数值。所有列长度一致，列长即 batch size。
type Batch map[string][]float64

// Len 返回 batch size（任取一列的长度；空 batch 返回 0）。
func (b Batch) Len() int {
	for _, col := range b {
		return len(col)
	}
	return 0
}

// Validate 校验 batch 覆盖 specs 声明的全部特征且各列长度一致。
// 缺失特征返回 NOT_FOUND，长度不一致返回 INVALID_INPUT。
func (b Batch) Validate(specs []FeatureSpec) error {
	n := -1
	for _, s := range specs {
		col, ok := b[s.Name]
		if !ok {
			return NewDomainError(ModuleFeature, ErrorCodeNotFound,
				fmt.Sprintf("batch: missing feature %q", s.Name))
		}
		if n < 0 {
			n = len(col)
			continue
		}
		if len(col) != n {
			return NewDomainError(ModuleFeature, ErrorCodeInvalidInput,
				fmt.Sprintf("batch: feature %q has %d examples, expected %d", s.Name, len(col), n))
		}
	}
	return nil
}
