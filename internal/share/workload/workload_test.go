package workload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// ========================================
// Config Tests
// ========================================

// TestLoadConfig_Defaults verifies omitted fields keep their defaults.
func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("queue:\n  items: 5\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	def := DefaultConfig()
	if cfg.Queue.Items != 5 {
		t.Errorf("queue.items = %d, want 5", cfg.Queue.Items)
	}
	if cfg.Queue.Producers != def.Queue.Producers || cfg.Counter != def.Counter {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

// TestLoadConfig_Empty verifies an empty document yields the defaults.
func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig(\"\") = %+v", cfg)
	}
}

// TestLoadConfig_Errors verifies strict parsing and validation.
func TestLoadConfig_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field": "counter:\n  workerz: 3\n",
		"negative":      "map:\n  writers: -1\n",
		"negative rate": "queue:\n  rate: -2\n",
		"no consumers":  "queue:\n  producers: 2\n  consumers: 0\n",
		"wrong type":    "counter:\n  workers: many\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(strings.NewReader(doc)); err == nil {
				t.Errorf("LoadConfig(%q) succeeded", doc)
			}
		})
	}
}

// ========================================
// Run Tests
// ========================================

// TestRun_Default runs the default workload; every check must pass.
func TestRun_Default(t *testing.T) {
	r, err := Run(context.Background(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.OK {
		out, _ := r.YAML()
		t.Fatalf("report not OK:\n%s", out)
	}
	if r.Counter.Got != 1010 {
		t.Errorf("counter = %d, want 1010", r.Counter.Got)
	}
	if r.Map.Rejected != DefaultConfig().Map.Writers {
		t.Errorf("rejected = %d", r.Map.Rejected)
	}
	t.Logf("default workload finished in %s", r.Elapsed)
}

// TestRun_SectionsSkipped verifies zero-worker sections are omitted.
func TestRun_SectionsSkipped(t *testing.T) {
	cfg := Config{Counter: CounterConfig{Workers: 2, Increments: 3}}
	r, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Map != nil || r.Queue != nil {
		t.Errorf("unexpected sections: %+v", r)
	}
	if r.Counter.Expected != 6 || !r.OK {
		t.Errorf("counter report = %+v", r.Counter)
	}
}

// TestRun_RateLimited verifies paced producers still deliver everything.
func TestRun_RateLimited(t *testing.T) {
	cfg := Config{Queue: QueueConfig{Producers: 2, Consumers: 3, Items: 20, Rate: 2000, Burst: 5}}
	r, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Queue.OK || r.Queue.Pushed != 40 {
		t.Errorf("queue report = %+v", r.Queue)
	}
}

// TestRun_Cancelled verifies cancellation stops blocked workers.
func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	cfg := Config{Queue: QueueConfig{Producers: 1, Consumers: 1, Items: 1000, Rate: 10}}

	_, err := Run(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Run succeeded despite cancellation")
	}
	if !errors.Is(err, context.DeadlineExceeded) && !strings.Contains(err.Error(), "context") {
		t.Errorf("Run error = %v", err)
	}
}

// TestReport_YAML verifies the report encodes with its field names.
func TestReport_YAML(t *testing.T) {
	r := &Report{
		Counter: &CounterReport{Expected: 3, Got: 3, OK: true},
		Elapsed: "1ms",
		OK:      true,
	}
	out, err := r.YAML()
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if _, ok := back["map"]; ok {
		t.Error("nil section encoded")
	}
	if back["ok"] != true {
		t.Errorf("ok = %v", back["ok"])
	}
}
