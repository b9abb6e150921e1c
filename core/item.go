package core

// Label 是排序链路中的可解释标记：Value 记录内容，Source 记录写入阶段
// （rank / rerank / filter / rule ...）。同名 Label 按 MergeLabel 规则累积。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// MergeLabel 合并同名 Label，遵循保留历史、可追踪的默认策略：
// Value 以 '|' 累积，Source 以 ',' 累积。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Item 是排序链路中的统一承载结构：候选内容的特征、分数、元信息、标签。
// Features 供模型打分；Meta 保存类别/话题等原始字段；Score 用于排序决策。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Row 把 Item 展开为一条预测用记录：Meta 字段在前，Features 覆盖同名字段。
func (it *Item) Row() Row {
	row := make(Row, len(it.Meta)+len(it.Features))
	for k, v := range it.Meta {
		row[k] = v
	}
	for k, v := range it.Features {
		row[k] = v
	}
	return row
}
