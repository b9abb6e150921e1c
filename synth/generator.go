package synth

import (
	"math"
	"math/rand"

	"github.com/feedworks/feedkit/core"
)

// Columns 是生成特征表的 23 个列名，按展示顺序排列。
// device 为 0 表示移动端；moderation_status: 0 clean / 1 flagged / 2 under_review / 3 restricted。
var Columns = []string{
	"persona_id", "age", "device", "hour", "ad_category", "feed_position", "match",
	"avg_scroll_depth", "avg_watch_time", "clicks_last_24h",
	"content_interactions", "video_completion_rate",
	"follower_count", "following_count", "engagement_rate",
	"network_density", "influence_score",
	"day_of_week", "is_weekend",
	"has_active_flags", "flag_score", "report_count", "moderation_status",
}

// DefaultSampleCount 是 Generate 的默认样本数。
const DefaultSampleCount = 10000

// Generator 生成合成点击样本。打分规则是确定性的加法公式，
// 唯一的随机性来自构造时传入的种子。
type Generator struct {
	Catalog Catalog
	rng     *rand.Rand
}

// NewGenerator 创建生成器。catalog 为空时使用内置目录。
func NewGenerator(catalog Catalog, seed int64) *Generator {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	return &Generator{
		Catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// draw 是一条样本的全部抽样结果，打分阶段不再触碰随机源。
type draw struct {
	persona    Persona
	personaID  int
	age        int
	device     int
	hour       int
	category   int
	match      int
	feedPos    int
	scroll     float64
	watchTime  float64
	clicks24h  int
	interacts  int
	completion float64
	followers  int
	following  int
	engagement float64
	density    float64
	influence  float64
	dayOfWeek  int
	isWeekend  int
	hasFlags   int
	flagScore  float64
	reports    int
	modStatus  int
}

// Generate 生成 n 条相互独立的样本，返回特征表与等长的点击概率目标向量。
// n <= 0 返回 INVALID_ARGUMENT。无任何 I/O 副作用。
func (g *Generator) Generate(n int) (*core.Table, []float64, error) {
	if n <= 0 {
		return nil, nil, core.NewDomainError(core.ModuleSynth, core.ErrorCodeInvalidArgument,
			"sample count must be positive")
	}

	table := core.NewTable(Columns...)
	targets := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		d := g.sample()
		prob := g.score(d) + g.rng.NormFloat64()*0.01
		prob = math.Max(0.01, math.Min(prob, 1.0))

		table.Append(core.Row{
			"persona_id":            d.personaID,
			"age":                   d.age,
			"device":                d.device,
			"hour":                  d.hour,
			"ad_category":           d.category,
			"feed_position":         d.feedPos,
			"match":                 d.match,
			"avg_scroll_depth":      d.scroll,
			"avg_watch_time":        d.watchTime,
			"clicks_last_24h":       d.clicks24h,
			"content_interactions":  d.interacts,
			"video_completion_rate": d.completion,
			"follower_count":        d.followers,
			"following_count":       d.following,
			"engagement_rate":       d.engagement,
			"network_density":       d.density,
			"influence_score":       d.influence,
			"day_of_week":           d.dayOfWeek,
			"is_weekend":            d.isWeekend,
			"has_active_flags":      d.hasFlags,
			"flag_score":            d.flagScore,
			"report_count":          d.reports,
			"moderation_status":     d.modStatus,
		})
		targets = append(targets, prob)
	}

	return table, targets, nil
}

// sample 按固定顺序抽取一条样本的所有字段。抽取顺序是确定性契约的一部分，
// 调整顺序会改变同种子下的输出。
func (g *Generator) sample() draw {
	d := draw{}
	d.personaID = g.rng.Intn(len(g.Catalog))
	d.persona = g.Catalog[d.personaID]

	// 基础用户属性
	d.age = 12 + g.rng.Intn(68) // [12, 80)
	d.hour = g.rng.Intn(24)
	if d.persona.Mobile {
		d.device = 0 // 移动端偏好的人设固定移动端
	} else {
		d.device = g.rng.Intn(2)
	}
	d.category = g.rng.Intn(20)
	if d.category == d.persona.Category {
		d.match = 1
	}
	d.feedPos = 1 + g.rng.Intn(10) // [1, 11)

	// 用户行为指标（user_metrics 表的取值范围）
	d.scroll = uniform(g.rng, 0.1, 1.0)
	d.watchTime = uniform(g.rng, 10, 300)
	d.clicks24h = g.rng.Intn(50)
	d.interacts = g.rng.Intn(20)
	d.completion = uniform(g.rng, 0.1, 1.0)

	// 社交网络指标（user_network_metrics 表的取值范围）
	d.followers = g.rng.Intn(1000)
	d.following = g.rng.Intn(1000)
	d.engagement = uniform(g.rng, 0.1, 0.9)
	d.density = uniform(g.rng, 0.1, 0.8)
	d.influence = uniform(g.rng, 0.1, 10.0)

	// 时间特征
	d.dayOfWeek = g.rng.Intn(7)
	if d.dayOfWeek >= 5 {
		d.isWeekend = 1
	}

	// 内容审核特征
	d.hasFlags = g.rng.Intn(2)
	if d.hasFlags == 1 {
		d.flagScore = uniform(g.rng, 0, 1.0)
	}
	d.reports = g.rng.Intn(5)
	d.modStatus = g.rng.Intn(4)

	return d
}

// score 计算加噪前的基础点击概率。各项贡献相互独立、纯加法，
// 浮点加法在舍入误差内可交换，实现按固定顺序累加。
func (g *Generator) score(d draw) float64 {
	base := 0.03

	// 时段因素
	if d.hour >= 20 || d.hour <= 2 {
		if d.persona.Night {
			base += 0.04
		} else {
			base -= 0.01
		}
	}
	if d.isWeekend == 1 {
		base += 0.02
	}

	// 用户偏好因素
	if d.match == 1 {
		base += d.persona.Boost
	}
	if d.device == 0 && d.persona.Mobile {
		base += 0.03
	}
	if d.feedPos <= 3 {
		base += 0.02
	}

	// 行为指标因素
	base += d.scroll * 0.03
	base += math.Min(d.watchTime/300, 1.0) * 0.02
	base += math.Min(float64(d.clicks24h)/50, 1.0) * 0.03
	base += math.Min(float64(d.interacts)/20, 1.0) * 0.02
	base += d.completion * 0.03

	// 网络指标因素
	base += math.Min(float64(d.followers)/1000, 1.0) * 0.02
	base += math.Min(float64(d.following)/1000, 1.0) * 0.01
	base += d.engagement * 0.03
	base += d.density * 0.02
	base += math.Min(d.influence/10, 1.0) * 0.04

	// 审核惩罚
	if d.hasFlags == 1 {
		base -= d.flagScore * 0.1
	}
	if d.reports > 0 {
		base -= math.Min(float64(d.reports)*0.05, 0.2)
	}
	if d.modStatus > 0 {
		base -= float64(d.modStatus) * 0.05
	}

	return base
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
