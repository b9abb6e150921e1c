package feast

import (
	"context"
	"fmt"
	"strconv"

	feastsdk "github.com/feast-dev/feast/sdk/go"
)

// GrpcClient 基于官方 Feast Go SDK 的 gRPC 客户端实现。
//
// 连接 Feast Feature Server 的 gRPC 端口（默认 6565），
// 实体值与特征值在领域类型与 SDK protobuf 类型之间双向转换：
// 数值统一折算为 float64，方便直接进入特征行。
type GrpcClient struct {
	client  *feastsdk.GrpcClient
	project string
}

// NewGrpcClient 建立到 Feast Feature Server 的 gRPC 连接。
func NewGrpcClient(host string, port int, project string) (*GrpcClient, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("connect feast server: %w", err)
	}
	return &GrpcClient{client: client, project: project}, nil
}

// GetOnlineFeatures 实现 Client 接口。
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *OnlineFeaturesRequest) (*OnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, fmt.Errorf("features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, fmt.Errorf("entity rows are required")
	}
	project := req.Project
	if project == "" {
		project = c.project
	}
	if project == "" {
		return nil, fmt.Errorf("project is required")
	}

	entities := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entity := make(feastsdk.Row, len(row))
		for k, v := range row {
			switch val := v.(type) {
			case string:
				entity[k] = feastsdk.StrVal(val)
			case int:
				entity[k] = feastsdk.Int64Val(int64(val))
			case int32:
				entity[k] = feastsdk.Int64Val(int64(val))
			case int64:
				entity[k] = feastsdk.Int64Val(val)
			case float32:
				entity[k] = feastsdk.FloatVal(val)
			case float64:
				entity[k] = feastsdk.DoubleVal(val)
			case bool:
				entity[k] = feastsdk.BoolVal(val)
			case []byte:
				entity[k] = feastsdk.BytesVal(val)
			default:
				entity[k] = feastsdk.StrVal(fmt.Sprintf("%v", val))
			}
		}
		entities[i] = entity
	}

	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entities,
		Project:  project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("feast row count mismatch: want %d, got %d", len(req.EntityRows), len(rows))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if val, ok := row[name]; ok {
				if converted := fromSDKValue(val); converted != nil {
					values[name] = converted
				}
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &OnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 实现 Client 接口。SDK 的连接由 gRPC 库管理，这里只释放引用。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// fromSDKValue 把 SDK 返回的值折算为领域侧类型：
// 数值归一为 float64（进入特征行），布尔转 0/1，字节转字符串。
func fromSDKValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return float64(1)
		}
		return float64(0)
	case []byte:
		return string(v)
	default:
		// SDK 原生返回 protobuf Value 时退化为字符串表示，可解析为数字则取数字
		s := fmt.Sprintf("%v", val)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
}

var _ Client = (*GrpcClient)(nil)
