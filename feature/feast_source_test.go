package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/feast"
)

// stubFeastClient 回放固定的特征向量，记录收到的请求。
type stubFeastClient struct {
	lastReq *feast.OnlineFeaturesRequest
	values  []map[string]any
	err     error
}

func (c *stubFeastClient) GetOnlineFeatures(_ context.Context, req *feast.OnlineFeaturesRequest) (*feast.OnlineFeaturesResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	vectors := make([]feast.FeatureVector, len(req.EntityRows))
	for i := range req.EntityRows {
		vectors[i] = feast.FeatureVector{Values: c.values[i], EntityRow: req.EntityRows[i]}
	}
	return &feast.OnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

func (c *stubFeastClient) Close() error { return nil }

func TestFeastSource_FetchRows(t *testing.T) {
	client := &stubFeastClient{values: []map[string]any{
		{"user_stats:user_engagement_score": 2.5, "user_stats:user_satisfaction_score": 4.0},
		{"user_stats:user_engagement_score": 1.0},
	}}
	src := &FeastSource{
		Client:    client,
		EntityKey: "user_id",
		Features:  []string{"user_stats:user_engagement_score", "user_stats:user_satisfaction_score"},
		Project:   "feedkit",
	}

	rows, err := src.FetchRows(context.Background(), []string{"u-1", "u-2"})
	if err != nil {
		t.Fatalf("FetchRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	// 特征全名折算成短列名，与模型列约定对齐
	if rows[0]["user_engagement_score"] != 2.5 {
		t.Errorf("user_engagement_score = %v, want 2.5", rows[0]["user_engagement_score"])
	}
	if rows[0]["user_satisfaction_score"] != 4.0 {
		t.Errorf("user_satisfaction_score = %v, want 4.0", rows[0]["user_satisfaction_score"])
	}
	if rows[0]["user_id"] != "u-1" || rows[1]["user_id"] != "u-2" {
		t.Errorf("entity column not carried through: %v / %v", rows[0]["user_id"], rows[1]["user_id"])
	}
	// Feast 缺失的特征不写入行
	if _, ok := rows[1]["user_satisfaction_score"]; ok {
		t.Error("missing feature should be absent from the row")
	}

	// 请求按实体逐行下发
	if client.lastReq.Project != "feedkit" {
		t.Errorf("project = %q, want feedkit", client.lastReq.Project)
	}
	if len(client.lastReq.EntityRows) != 2 || client.lastReq.EntityRows[1]["user_id"] != "u-2" {
		t.Errorf("entity rows = %v", client.lastReq.EntityRows)
	}
}

func TestFeastSource_FetchRow(t *testing.T) {
	client := &stubFeastClient{values: []map[string]any{
		{"user_stats:user_engagement_score": 3.0},
	}}
	src := &FeastSource{Client: client, EntityKey: "user_id", Features: []string{"user_stats:user_engagement_score"}}

	row, err := src.FetchRow(context.Background(), "u-9")
	if err != nil {
		t.Fatalf("FetchRow failed: %v", err)
	}
	if row["user_id"] != "u-9" || row["user_engagement_score"] != 3.0 {
		t.Errorf("row = %v", row)
	}
}

func TestFeastSource_Errors(t *testing.T) {
	src := &FeastSource{Client: &stubFeastClient{}, EntityKey: "user_id"}
	if _, err := src.FetchRows(context.Background(), nil); !core.IsInvalidArgument(err) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}

	wantErr := errors.New("feast unavailable")
	src = &FeastSource{Client: &stubFeastClient{err: wantErr}, EntityKey: "user_id"}
	if _, err := src.FetchRows(context.Background(), []string{"u-1"}); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
