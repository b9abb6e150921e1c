package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/feedworks/feedkit/core"
)

// traceNode 记录执行顺序，并可选地追加/截断候选。
type traceNode struct {
	name  string
	trace *[]string
	fn    func(items []*core.Item) ([]*core.Item, error)
}

func (n *traceNode) Name() string { return n.name }
func (n *traceNode) Kind() Kind   { return KindPostProcess }

func (n *traceNode) Process(_ context.Context, _ *core.RankContext, items []*core.Item) ([]*core.Item, error) {
	*n.trace = append(*n.trace, n.name)
	if n.fn != nil {
		return n.fn(items)
	}
	return items, nil
}

func TestPipeline_RunOrder(t *testing.T) {
	var trace []string
	p := &Pipeline{Nodes: []Node{
		&traceNode{name: "first", trace: &trace},
		&traceNode{name: "second", trace: &trace, fn: func(items []*core.Item) ([]*core.Item, error) {
			return items[:1], nil
		}},
		&traceNode{name: "third", trace: &trace},
	}}

	items := []*core.Item{core.NewItem("a"), core.NewItem("b")}
	out, err := p.Run(context.Background(), &core.RankContext{}, items)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(trace) != 3 || trace[0] != "first" || trace[1] != "second" || trace[2] != "third" {
		t.Errorf("trace = %v, want [first second third]", trace)
	}
	// 前一个 Node 的输出是后一个的输入
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("out = %v, want single item a", out)
	}
}

func TestPipeline_RunAbortsOnError(t *testing.T) {
	var trace []string
	wantErr := errors.New("node failed")
	p := &Pipeline{Nodes: []Node{
		&traceNode{name: "first", trace: &trace, fn: func([]*core.Item) ([]*core.Item, error) {
			return nil, wantErr
		}},
		&traceNode{name: "second", trace: &trace},
	}}

	_, err := p.Run(context.Background(), nil, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(trace) != 1 {
		t.Errorf("trace = %v, later nodes should not run after an error", trace)
	}
}

func TestNodeFactory_Build(t *testing.T) {
	var trace []string
	f := NewNodeFactory()
	f.Register("test.trace", func(config map[string]any) (Node, error) {
		return &traceNode{name: config["name"].(string), trace: &trace}, nil
	})

	node, err := f.Build("test.trace", map[string]any{"name": "n1"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if node.Name() != "n1" {
		t.Errorf("node name = %s, want n1", node.Name())
	}

	if _, err := f.Build("test.unknown", nil); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestConfig_LoadFromYAMLAndBuild(t *testing.T) {
	yamlBody := `
pipeline:
  name: home_feed
  nodes:
    - type: test.trace
      config:
        name: stage_a
    - type: test.trace
      config:
        name: stage_b
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}
	if cfg.Pipeline.Name != "home_feed" {
		t.Errorf("name = %s, want home_feed", cfg.Pipeline.Name)
	}
	if len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(cfg.Pipeline.Nodes))
	}

	var trace []string
	f := NewNodeFactory()
	f.Register("test.trace", func(config map[string]any) (Node, error) {
		return &traceNode{name: config["name"].(string), trace: &trace}, nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline failed: %v", err)
	}
	if len(p.Nodes) != 2 || p.Nodes[0].Name() != "stage_a" {
		t.Errorf("built pipeline nodes = %d (%s), want 2 starting with stage_a", len(p.Nodes), p.Nodes[0].Name())
	}
}

func TestConfig_BuildPipelineUnknownType(t *testing.T) {
	var cfg Config
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "does.not.exist"}}
	_, err := cfg.BuildPipeline(NewNodeFactory())
	if err == nil || !strings.Contains(err.Error(), "does.not.exist") {
		t.Fatalf("err = %v, want unknown type error naming the type", err)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
