// Package feedkit 是一个信息流排序工具包（Feed Kit）：
// 从合成互动数据到特征工程、模型训练，再到配置化的在线排序链路。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Filter → Rank → ReRank → PostProcess）
// - 列约定优先: 每个模型声明自己的特征列，输入不满足约定立即报错
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package feedkit

import "github.com/feedworks/feedkit/pipeline"

// 轻量 facade：便于用户直接 import "feedkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
