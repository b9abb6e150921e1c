package core

// RankContext 承载一次排序请求的用户侧信息，贯穿整个 Pipeline 透传。
//
// User 保存进入模型列约定的用户字段（user_age、user_region_encoded 等），
// Params 保存请求级上下文（feed_type、实验桶等），不进入特征矩阵。
type RankContext struct {
	UserID string
	Scene  string

	// User 是用户侧特征行，与候选 Item 的行合并后送入模型
	User Row

	// Labels 是用户级标签，可驱动 Pipeline 行为（新用户、重度用户等）
	Labels map[string]Label

	// Params 请求级上下文参数
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RankContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RankContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
