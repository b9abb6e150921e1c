package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pkg/conv"
)

// 类别列与编码结果列的固定对应关系。
var categoricalColumns = []struct {
	raw     string
	encoded string
}{
	{"user_region", "user_region_encoded"},
	{"user_device", "user_device_encoded"},
	{"content_type", "content_type_encoded"},
	{"content_topic", "content_topic_encoded"},
}

// RequiredColumns 是 Engineer 输入表必须具备的原始列。
// 任务相关的目标列（click、ranking_score 等）由下游消费，不在此列。
var RequiredColumns = []string{
	"user_region", "user_device", "content_type", "content_topic",
	"likes", "comments", "shares", "bookmarks",
	"content_likes", "content_comments", "content_shares", "content_bookmarks",
	"user_satisfaction", "user_id", "timestamp",
}

// Engineer 负责类别编码与衍生特征计算，持有四个类别编码器的 fit 状态。
//
// 生命周期：fit 阶段调用 FitTransform 建立编码映射；推理阶段必须先 Load
// （或复用 fit 过的实例）再调用 Transform。编码器状态通过 Save/Load 持久化。
type Engineer struct {
	Region      *LabelEncoder
	Device      *LabelEncoder
	ContentType *LabelEncoder
	Topic       *LabelEncoder
}

// NewEngineer 创建一个未 fit 的特征工程器。
func NewEngineer() *Engineer {
	return &Engineer{
		Region:      &LabelEncoder{},
		Device:      &LabelEncoder{},
		ContentType: &LabelEncoder{},
		Topic:       &LabelEncoder{},
	}
}

// Fitted 返回四个编码器是否都已 fit。
func (e *Engineer) Fitted() bool {
	return e.Region.Fitted() && e.Device.Fitted() && e.ContentType.Fitted() && e.Topic.Fitted()
}

// FitTransform 对四个类别列建立编码映射并就地编码，然后计算衍生特征。
// 类别值必须是非空字符串：空值拒绝而非静默编码，返回 INVALID_ARGUMENT。
func (e *Engineer) FitTransform(table *core.Table) error {
	if missing := table.MissingColumns(RequiredColumns); len(missing) > 0 {
		return core.NewMissingFeaturesError(core.ModuleFeature, missing)
	}

	for _, col := range categoricalColumns {
		values, err := categoricalValues(table, col.raw)
		if err != nil {
			return err
		}
		e.encoderFor(col.raw).Fit(values)
	}

	return e.apply(table)
}

// Transform 使用已 fit 的编码器就地编码，然后计算衍生特征。
// fit 阶段未见过的类别返回 UNSEEN_CATEGORY；未 fit 就调用返回 INVALID_ARGUMENT。
func (e *Engineer) Transform(table *core.Table) error {
	if !e.Fitted() {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"feature engineer is not fitted; call FitTransform or Load first")
	}
	if missing := table.MissingColumns(RequiredColumns); len(missing) > 0 {
		return core.NewMissingFeaturesError(core.ModuleFeature, missing)
	}
	return e.apply(table)
}

// apply 执行编码与衍生特征计算，FitTransform 与 Transform 共用。
func (e *Engineer) apply(table *core.Table) error {
	for _, col := range categoricalColumns {
		enc := e.encoderFor(col.raw)
		for _, row := range table.Rows {
			value, err := categoricalValue(row, col.raw)
			if err != nil {
				return err
			}
			code, err := enc.Transform(value)
			if err != nil {
				return err
			}
			row[col.encoded] = code
		}
		table.AddColumn(col.encoded)
	}
	return e.derive(table)
}

// derive 计算衍生分数与时间字段并登记新列。
func (e *Engineer) derive(table *core.Table) error {
	for _, row := range table.Rows {
		ue, err := weightedEngagement(row, "likes", "comments", "shares", "bookmarks")
		if err != nil {
			return err
		}
		ce, err := weightedEngagement(row, "content_likes", "content_comments", "content_shares", "content_bookmarks")
		if err != nil {
			return err
		}
		sat, ok := conv.ToFloat64(row["user_satisfaction"])
		if !ok {
			return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
				"user_satisfaction has a non-numeric value")
		}

		row["user_engagement_score"] = ue
		row["content_engagement_score"] = ce
		// 满意度按 0-5 量表归一；超范围的输入原样透传，不做截断
		row["user_satisfaction_score"] = sat / 5.0
		row["content_quality_score"] = ce*0.7 + (sat/5.0)*0.3

		ts, err := parseTimestamp(row["timestamp"])
		if err != nil {
			return err
		}
		row["hour_of_day"] = ts.Hour()
		// 与训练数据约定对齐：周一为 0，周日为 6
		row["day_of_week"] = (int(ts.Weekday()) + 6) % 7
	}

	e.deriveInterestScores(table)
	e.deriveDiversityScores(table)

	for _, c := range []string{
		"user_engagement_score", "content_engagement_score", "user_satisfaction_score",
		"content_quality_score", "user_interest_score", "content_diversity_score",
		"hour_of_day", "day_of_week",
	} {
		table.AddColumn(c)
	}
	return nil
}

// deriveInterestScores 计算 user_interest_score：
// 按 (user_id, content_topic) 分组求参与度均值，再对每个话题取组均值的均值，
// 最后对话题均值做 min-max 归一并广播回共享该话题的每一行。
// 全部话题均值相同（max == min）时归一结果定义为 0，避免 NaN 进入估计器。
func (e *Engineer) deriveInterestScores(table *core.Table) {
	type groupKey struct {
		user  string
		topic string
	}
	sums := make(map[groupKey]float64)
	counts := make(map[groupKey]int)
	for _, row := range table.Rows {
		key := groupKey{user: fmt.Sprint(row["user_id"]), topic: fmt.Sprint(row["content_topic"])}
		v, _ := conv.ToFloat64(row["user_engagement_score"])
		sums[key] += v
		counts[key]++
	}

	// 固定分组累加顺序，同一输入的浮点求和逐位可复现
	keys := make([]groupKey, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].topic != keys[j].topic {
			return keys[i].topic < keys[j].topic
		}
		return keys[i].user < keys[j].user
	})

	topicSums := make(map[string]float64)
	topicCounts := make(map[string]int)
	for _, key := range keys {
		topicSums[key.topic] += sums[key] / float64(counts[key])
		topicCounts[key.topic]++
	}

	topicMeans := make(map[string]float64, len(topicSums))
	for topic, sum := range topicSums {
		topicMeans[topic] = sum / float64(topicCounts[topic])
	}
	normalized := minMaxNormalize(topicMeans)

	for _, row := range table.Rows {
		row["user_interest_score"] = normalized[fmt.Sprint(row["content_topic"])]
	}
}

// deriveDiversityScores 计算 content_diversity_score：
// 统计每个用户交互过的去重话题数，对用户间做 min-max 归一并广播回该用户的每一行。
// 零极差同样定义为 0。
func (e *Engineer) deriveDiversityScores(table *core.Table) {
	userTopics := make(map[string]map[string]struct{})
	for _, row := range table.Rows {
		user := fmt.Sprint(row["user_id"])
		topic := fmt.Sprint(row["content_topic"])
		if userTopics[user] == nil {
			userTopics[user] = make(map[string]struct{})
		}
		userTopics[user][topic] = struct{}{}
	}

	diversity := make(map[string]float64, len(userTopics))
	for user, topics := range userTopics {
		diversity[user] = float64(len(topics))
	}
	normalized := minMaxNormalize(diversity)

	for _, row := range table.Rows {
		row["content_diversity_score"] = normalized[fmt.Sprint(row["user_id"])]
	}
}

// encoderState 是持久化用的编码器快照。
type encoderState struct {
	Region      []string `json:"region"`
	Device      []string `json:"device"`
	ContentType []string `json:"content_type"`
	Topic       []string `json:"topic"`
}

// Export 导出四个编码器的状态为一个 JSON blob。
func (e *Engineer) Export() ([]byte, error) {
	if !e.Fitted() {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"feature engineer is not fitted")
	}
	data, err := json.Marshal(encoderState{
		Region:      e.Region.Classes,
		Device:      e.Device.Classes,
		ContentType: e.ContentType.Classes,
		Topic:       e.Topic.Classes,
	})
	if err != nil {
		return nil, &core.DomainError{Module: core.ModuleFeature, Code: core.ErrorCodePersistence,
			Message: "encode encoder state: " + err.Error()}
	}
	return data, nil
}

// Import 从 JSON blob 整体替换编码器状态。解析失败时不触碰现有状态。
func (e *Engineer) Import(data []byte) error {
	var state encoderState
	if err := json.Unmarshal(data, &state); err != nil {
		return &core.DomainError{Module: core.ModuleFeature, Code: core.ErrorCodePersistence,
			Message: "decode encoder state: " + err.Error()}
	}
	e.Region = NewLabelEncoder(state.Region)
	e.Device = NewLabelEncoder(state.Device)
	e.ContentType = NewLabelEncoder(state.ContentType)
	e.Topic = NewLabelEncoder(state.Topic)
	return nil
}

// Save 将编码器状态写入文件。
func (e *Engineer) Save(path string) error {
	data, err := e.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &core.DomainError{Module: core.ModuleFeature, Code: core.ErrorCodePersistence,
			Message: "write encoder state: " + err.Error()}
	}
	return nil
}

// Load 从文件整体替换编码器状态，之后才允许调用 Transform。
func (e *Engineer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &core.DomainError{Module: core.ModuleFeature, Code: core.ErrorCodePersistence,
			Message: "read encoder state: " + err.Error()}
	}
	return e.Import(data)
}

func (e *Engineer) encoderFor(rawColumn string) *LabelEncoder {
	switch rawColumn {
	case "user_region":
		return e.Region
	case "user_device":
		return e.Device
	case "content_type":
		return e.ContentType
	default:
		return e.Topic
	}
}

// categoricalValues 收集一列的全部类别值，空值即拒绝。
func categoricalValues(table *core.Table, column string) ([]string, error) {
	values := make([]string, 0, table.Len())
	for _, row := range table.Rows {
		v, err := categoricalValue(row, column)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func categoricalValue(row core.Row, column string) (string, error) {
	s, ok := conv.ToString(row[column])
	if !ok || s == "" {
		return "", core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"column "+column+" has a null or non-string category value")
	}
	return s, nil
}

// weightedEngagement 计算加权参与度：(likes*1 + comments*2 + shares*3 + bookmarks*4) / 4。
func weightedEngagement(row core.Row, likes, comments, shares, bookmarks string) (float64, error) {
	weights := []struct {
		col    string
		weight float64
	}{
		{likes, 1.0}, {comments, 2.0}, {shares, 3.0}, {bookmarks, 4.0},
	}
	total := 0.0
	for _, w := range weights {
		v, ok := conv.ToFloat64(row[w.col])
		if !ok {
			return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
				"column "+w.col+" has a non-numeric value")
		}
		total += v * w.weight
	}
	return total / 4.0, nil
}

// minMaxNormalize 对 map 的 value 做 min-max 归一。
// 零极差（max == min）是已定义行为：全部归一为 0，不产生 NaN。
func minMaxNormalize(values map[string]float64) map[string]float64 {
	if len(values) == 0 {
		return values
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make(map[string]float64, len(values))
	span := hi - lo
	for k, v := range values {
		if span == 0 {
			out[k] = 0
			continue
		}
		out[k] = (v - lo) / span
	}
	return out
}

// timestampLayouts 是 parseTimestamp 依次尝试的字符串格式。
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp 将 timestamp 列的值解析为时间点。
// 支持 time.Time 与常见字符串格式；解析失败返回 INVALID_TIMESTAMP。
func parseTimestamp(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, val); err == nil {
				return ts, nil
			}
		}
	}
	return time.Time{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidTimestamp,
		fmt.Sprintf("timestamp %v is not parseable", v))
}
