package synth

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/feedworks/feedkit/core"
)

// 类别取值表与线上模拟器保持一致。
var (
	regions      = []string{"north_america", "south_america", "europe", "asia", "africa", "oceania"}
	devices      = []string{"mobile", "desktop"}
	contentTypes = []string{"post", "thread", "video", "ad"}
	topics       = []string{
		"technology", "fashion", "food", "travel", "entertainment",
		"sports", "health", "education", "finance", "news",
	}
)

// InteractionColumns 是合成交互表的列。前段是特征工程要求的原始列，
// 后段是模型训练用的附加特征与三个任务标签。
var InteractionColumns = []string{
	"user_id", "user_region", "user_device", "content_type", "content_topic",
	"likes", "comments", "shares", "bookmarks",
	"content_likes", "content_comments", "content_shares", "content_bookmarks",
	"user_satisfaction", "timestamp",
	"user_age", "user_persona_id", "content_length", "content_age_hours", "feed_position",
	"click", "engagement_score", "ranking_score",
}

// DefaultUserCount 是合成用户池的默认大小。
const DefaultUserCount = 200

// InteractionGenerator 生成原始交互记录，供离线训练管线消费。
//
// 与 Generator（CTR 标签表）的分工：Generator 产出已编码的数值特征表，
// InteractionGenerator 产出未编码的原始行（字符串类别 + 时间戳），
// 走完整的 预处理 → 特征工程 路径。
//
// 用户池内的属性（年龄、地区、设备、画像）按用户固定，
// 同一用户的多条交互共享这些属性。
type InteractionGenerator struct {
	Catalog Catalog
	Users   int

	rng *rand.Rand
	now time.Time
}

// NewInteractionGenerator 创建交互生成器，seed 固定时输出可复现。
func NewInteractionGenerator(catalog Catalog, seed int64) *InteractionGenerator {
	return &InteractionGenerator{
		Catalog: catalog,
		Users:   DefaultUserCount,
		rng:     rand.New(rand.NewSource(seed)),
		// 时间锚点固定，保证同 seed 输出完全一致
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

type syntheticUser struct {
	id        string
	age       int
	region    string
	device    string
	personaID int
}

// Generate 生成 n 条交互记录。n <= 0 返回 INVALID_ARGUMENT。
func (g *InteractionGenerator) Generate(n int) (*core.Table, error) {
	if n <= 0 {
		return nil, core.NewDomainError(core.ModuleSynth, core.ErrorCodeInvalidArgument,
			fmt.Sprintf("sample count must be positive, got %d", n))
	}
	if len(g.Catalog) == 0 {
		return nil, core.NewDomainError(core.ModuleSynth, core.ErrorCodeInvalidArgument,
			"persona catalog is empty")
	}

	users := make([]syntheticUser, g.Users)
	for i := range users {
		users[i] = syntheticUser{
			id:        fmt.Sprintf("user_%04d", i),
			age:       13 + g.rng.Intn(60),
			region:    regions[g.rng.Intn(len(regions))],
			device:    devices[g.rng.Intn(len(devices))],
			personaID: g.rng.Intn(len(g.Catalog)),
		}
	}

	table := core.NewTable(InteractionColumns...)
	for i := 0; i < n; i++ {
		table.Append(g.interaction(users[g.rng.Intn(len(users))]))
	}
	return table, nil
}

// interaction 生成一条交互行：用户侧字段来自用户池，内容侧字段独立抽样，
// 三个标签由互动量加性合成（click 经由伯努利抽样离散化）。
func (g *InteractionGenerator) interaction(user syntheticUser) core.Row {
	likes := float64(g.rng.Intn(20))
	comments := float64(g.rng.Intn(10))
	shares := float64(g.rng.Intn(5))
	bookmarks := float64(g.rng.Intn(5))
	satisfaction := uniform(g.rng, 1, 5)

	engagement := (likes*1 + comments*2 + shares*3 + bookmarks*4) / 4
	feedPos := 1 + g.rng.Intn(10)

	// 点击概率随互动量与 feed 位次变动，夹在 [0.02, 0.95]
	prob := 0.05 + engagement/30 - float64(feedPos)*0.01
	prob = math.Max(0.02, math.Min(prob, 0.95))
	click := 0.0
	if g.rng.Float64() < prob {
		click = 1.0
	}

	ts := g.now.Add(-time.Duration(g.rng.Intn(30*24)) * time.Hour)

	return core.Row{
		"user_id":           user.id,
		"user_region":       user.region,
		"user_device":       user.device,
		"user_age":          user.age,
		"user_persona_id":   user.personaID,
		"content_type":      contentTypes[g.rng.Intn(len(contentTypes))],
		"content_topic":     topics[g.rng.Intn(len(topics))],
		"content_length":    50 + g.rng.Intn(450),
		"content_age_hours": uniform(g.rng, 0, 72),
		"likes":             likes,
		"comments":          comments,
		"shares":            shares,
		"bookmarks":         bookmarks,
		"content_likes":     float64(g.rng.Intn(500)),
		"content_comments":  float64(g.rng.Intn(200)),
		"content_shares":    float64(g.rng.Intn(100)),
		"content_bookmarks": float64(g.rng.Intn(100)),
		"user_satisfaction": satisfaction,
		"timestamp":         ts.Format("2006-01-02 15:04:05"),
		"feed_position":     feedPos,
		"click":             click,
		"engagement_score":  engagement + g.rng.NormFloat64()*0.1,
		"ranking_score":     0.4*prob + 0.4*engagement/20 + 0.2*satisfaction/5 + g.rng.NormFloat64()*0.01,
	}
}
