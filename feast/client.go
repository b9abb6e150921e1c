// Package feast 封装 Feast Feature Store 的在线特征获取，
// 用于在预测/排序前补齐用户侧与内容侧的实时特征。
package feast

import "context"

// Client 是 Feast 在线特征客户端的抽象接口。
//
// 典型用法：排序服务在收到请求后，用 user_id / content_id 作为实体
// 拉取在线特征（user_engagement_score、content_engagement_score 等），
// 再与请求上下文合并成模型输入行。
type Client interface {
	// GetOnlineFeatures 按实体行批量获取在线特征。
	// features 形如 "user_stats:user_engagement_score"；
	// entityRows 形如 [{"user_id": "u-1001"}]。
	GetOnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeaturesResponse, error)

	// Close 关闭客户端连接。
	Close() error
}

// OnlineFeaturesRequest 在线特征请求。
type OnlineFeaturesRequest struct {
	// Features 特征全名列表（feature_view:feature_name）
	Features []string

	// EntityRows 实体行，每行对应一个待查实体
	EntityRows []map[string]any

	// Project 项目名（为空时使用客户端默认值）
	Project string
}

// OnlineFeaturesResponse 在线特征响应，FeatureVectors 与请求的实体行一一对应。
type OnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征向量。
type FeatureVector struct {
	// Values 特征值，key 为请求中的特征全名
	Values map[string]any

	// EntityRow 对应的请求实体行
	EntityRow map[string]any
}
