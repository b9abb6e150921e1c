package feature

import (
	"context"
	"strings"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/feast"
)

// FeastSource 从 Feast 在线存储拉取实体特征并组装成预测用的行。
//
// Features 使用 Feast 全名（feature_view:feature_name），写入行时
// 取冒号后的短名作为列名，与模型列约定对齐。例如
// "user_stats:user_engagement_score" 写入列 user_engagement_score。
type FeastSource struct {
	Client    feast.Client
	EntityKey string   // 实体列名，如 "user_id"
	Features  []string // Feast 特征全名列表
	Project   string
}

// FetchRows 批量拉取实体的在线特征，返回与 entityIDs 顺序一致的行。
// 每行包含实体列本身与全部已取到的特征；Feast 缺失的特征不写入行，
// 由下游的列约定检查（MissingFeatures）兜底。
func (s *FeastSource) FetchRows(ctx context.Context, entityIDs []string) ([]core.Row, error) {
	if len(entityIDs) == 0 {
		return nil, core.NewDomainError("feature", core.ErrorCodeInvalidArgument,
			"entity ids must not be empty")
	}

	entityRows := make([]map[string]any, len(entityIDs))
	for i, id := range entityIDs {
		entityRows[i] = map[string]any{s.EntityKey: id}
	}

	resp, err := s.Client.GetOnlineFeatures(ctx, &feast.OnlineFeaturesRequest{
		Features:   s.Features,
		EntityRows: entityRows,
		Project:    s.Project,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]core.Row, len(resp.FeatureVectors))
	for i, fv := range resp.FeatureVectors {
		row := make(core.Row, len(fv.Values)+1)
		row[s.EntityKey] = entityIDs[i]
		for name, value := range fv.Values {
			row[shortFeatureName(name)] = value
		}
		rows[i] = row
	}
	return rows, nil
}

// FetchRow 拉取单个实体的在线特征行，常用于组装 RankContext.User。
func (s *FeastSource) FetchRow(ctx context.Context, entityID string) (core.Row, error) {
	rows, err := s.FetchRows(ctx, []string{entityID})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func shortFeatureName(full string) string {
	if idx := strings.LastIndex(full, ":"); idx >= 0 {
		return full[idx+1:]
	}
	return full
}
