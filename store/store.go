package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store 接口。
//
// 示例：
//   var s core.Store = NewMemoryStore()
//
// Convkit 中的典型用途是存取预训练参数（嵌入表、塔权重），
// key 约定见 embedding 包的 TableKey。
