// Package store 提供 core.Store 的具体实现。
// 接口定义在 core 包：领域层定义接口，基础设施层实现接口。
//
// 用途：训练产物（模型 bundle、编码器状态）与打分缓存的二进制存储。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
package store
