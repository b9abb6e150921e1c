package trainer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是离线训练管线的配置（支持 YAML）。
type Config struct {
	// Samples 是合成交互样本数，默认 10000
	Samples int `yaml:"samples"`
	// Seed 是随机种子，固定后整个管线可复现
	Seed int64 `yaml:"seed"`
	// CatalogPath 为空时使用内置画像目录
	CatalogPath string `yaml:"catalog_path"`
	// TestSize 是测试集占比，默认 0.2
	TestSize float64 `yaml:"test_size"`
	// ModelDir 是模型 bundle 的落盘目录
	ModelDir string `yaml:"model_dir"`
	// RedisAddr 非空时训练产物同时写入 Redis
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// DefaultConfig 返回默认训练配置。
func DefaultConfig() Config {
	return Config{
		Samples:  10000,
		Seed:     42,
		TestSize: 0.2,
		ModelDir: "models",
	}
}

// LoadConfig 从 YAML 文件加载训练配置，缺省字段用默认值补齐。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Samples <= 0 {
		cfg.Samples = 10000
	}
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		cfg.TestSize = 0.2
	}
	return cfg, nil
}
