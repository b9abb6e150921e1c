// Package trainer 驱动端到端离线训练：
// 合成交互数据 → 预处理 → 特征工程 → 三个任务模型的训练 / 评估 / 持久化。
package trainer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/eval"
	"github.com/feedworks/feedkit/feature"
	"github.com/feedworks/feedkit/model"
	"github.com/feedworks/feedkit/store"
	"github.com/feedworks/feedkit/synth"
)

// Trainer 持有训练管线的全部组件。Store 可选：配置了 Redis 时
// 训练产物除落盘外还会以 model:<name> 为 key 写入存储。
type Trainer struct {
	Config   Config
	Engineer *feature.Engineer
	Pre      *feature.Preprocessor
	CTR      *model.CTRModel
	Content  *model.ContentInteractionModel
	Feed     *model.FeedRankingModel
	Store    core.Store
}

// New 按配置构建训练器。
func New(cfg Config) *Trainer {
	pre := feature.NewPreprocessor()
	pre.TestSize = cfg.TestSize
	return &Trainer{
		Config:   cfg,
		Engineer: feature.NewEngineer(),
		Pre:      pre,
		CTR:      model.NewCTRModel(cfg.Seed),
		Content:  model.NewContentInteractionModel(cfg.Seed),
		Feed:     model.NewFeedRankingModel(cfg.Seed),
	}
}

// ConnectStore 按配置连接 Redis。未配置地址时什么都不做，
// 训练产物只落盘。
func (t *Trainer) ConnectStore() error {
	if t.Config.RedisAddr == "" {
		return nil
	}
	s, err := store.NewRedisStore(t.Config.RedisAddr, t.Config.RedisDB)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	t.Store = s
	return nil
}

// PrepareData 生成合成交互表并走完预处理与特征工程：
// 按时间切分后，编码器只在训练集上 fit，测试集仅 transform。
func (t *Trainer) PrepareData() (train, test *core.Table, err error) {
	catalog := synth.DefaultCatalog()
	if t.Config.CatalogPath != "" {
		catalog, err = synth.LoadCatalog(t.Config.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
	}

	raw, err := synth.NewInteractionGenerator(catalog, t.Config.Seed).Generate(t.Config.Samples)
	if err != nil {
		return nil, nil, err
	}
	cleaned, err := t.Pre.Preprocess(raw)
	if err != nil {
		return nil, nil, err
	}
	train, test, err = t.Pre.Split(cleaned)
	if err != nil {
		return nil, nil, err
	}
	if err := t.Engineer.FitTransform(train); err != nil {
		return nil, nil, err
	}
	if err := t.Engineer.Transform(test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// TrainAll 训练全部模型并返回各自的测试集指标。
//
// 依赖关系决定了两段式调度：CTR 与内容互动模型互相独立，并发训练；
// 排序模型的特征包含上游两个模型的预测（predicted_ctr /
// predicted_engagement），必须等它们完成后再补列训练。
func (t *Trainer) TrainAll(ctx context.Context) (map[string]map[string]float64, error) {
	train, test, err := t.PrepareData()
	if err != nil {
		return nil, err
	}

	var ctrMetrics, contentMetrics map[string]float64

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Printf("training ctr model on %d rows", train.Len())
		if err := t.CTR.Train(train); err != nil {
			return fmt.Errorf("train ctr: %w", err)
		}
		m, err := t.CTR.Evaluate(test)
		if err != nil {
			return fmt.Errorf("evaluate ctr: %w", err)
		}
		ctrMetrics = m
		return nil
	})
	eg.Go(func() error {
		log.Printf("training content interaction model on %d rows", train.Len())
		if err := t.Content.Train(train); err != nil {
			return fmt.Errorf("train content: %w", err)
		}
		m, err := t.Content.Evaluate(test)
		if err != nil {
			return fmt.Errorf("evaluate content: %w", err)
		}
		contentMetrics = m
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	metrics := map[string]map[string]float64{
		"ctr":                 ctrMetrics,
		"content_interaction": contentMetrics,
	}

	// 上游预测作为排序模型特征
	for _, table := range []*core.Table{train, test} {
		if err := t.attachUpstreamPredictions(table); err != nil {
			return nil, err
		}
	}
	log.Printf("training feed ranking model on %d rows", train.Len())
	if err := t.Feed.Train(train); err != nil {
		return nil, fmt.Errorf("train feed: %w", err)
	}
	feedMetrics, err := t.Feed.Evaluate(test)
	if err != nil {
		return nil, fmt.Errorf("evaluate feed: %w", err)
	}
	metrics["feed_ranking"] = feedMetrics

	if err := t.persist(ctx); err != nil {
		return nil, err
	}

	for name, m := range metrics {
		log.Print(eval.Report(name, m))
	}
	return metrics, nil
}

// attachUpstreamPredictions 把 CTR 与内容互动模型的预测写入表中。
func (t *Trainer) attachUpstreamPredictions(table *core.Table) error {
	ctr, err := t.CTR.Predict(table)
	if err != nil {
		return fmt.Errorf("predict ctr: %w", err)
	}
	engagement, err := t.Content.Predict(table)
	if err != nil {
		return fmt.Errorf("predict engagement: %w", err)
	}
	for i, row := range table.Rows {
		row["predicted_ctr"] = ctr[i]
		row["predicted_engagement"] = engagement[i]
	}
	table.AddColumn("predicted_ctr")
	table.AddColumn("predicted_engagement")
	return nil
}

// persist 把模型 bundle 与编码器状态写到磁盘，配置了存储时同步写入。
func (t *Trainer) persist(ctx context.Context) error {
	if err := os.MkdirAll(t.Config.ModelDir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	type artifact struct {
		name   string
		save   func(string) error
		export func() ([]byte, error)
	}
	artifacts := []artifact{
		{"ctr", t.CTR.Save, t.CTR.Export},
		{"content_interaction", t.Content.Save, t.Content.Export},
		{"feed_ranking", t.Feed.Save, t.Feed.Export},
		{"encoders", t.Engineer.Save, t.Engineer.Export},
	}
	for _, a := range artifacts {
		path := filepath.Join(t.Config.ModelDir, a.name+".json")
		if err := a.save(path); err != nil {
			return err
		}
		log.Printf("saved %s to %s", a.name, path)

		if t.Store == nil {
			continue
		}
		blob, err := a.export()
		if err != nil {
			return err
		}
		if err := t.Store.Set(ctx, "model:"+a.name, blob); err != nil {
			return fmt.Errorf("store %s: %w", a.name, err)
		}
	}
	return nil
}
