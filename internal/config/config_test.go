package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trumpwatch/internal/countdown"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("默认配置应可加载: %v", err)
	}

	want := countdown.DefaultTerm()
	if !cfg.Term.Start.Equal(want.Start) || !cfg.Term.End.Equal(want.End) || cfg.Term.TotalDays != 1461 {
		t.Fatalf("任期默认值不正确: %+v", cfg.Term)
	}
	if cfg.Sources.Timeout != 8*time.Second || cfg.Sources.QuoteCount != 7 {
		t.Fatalf("数据源默认值不正确: %+v", cfg.Sources)
	}
	if cfg.Sources.APIKeys.EIA != "DEMO_KEY" {
		t.Fatalf("EIA 默认 key 应为 DEMO_KEY")
	}
	if cfg.Baselines.Gas != 3.08 || cfg.Fallbacks.Gas != 2.95 {
		t.Fatalf("汽油基准/兜底值不正确: %+v %+v", cfg.Baselines, cfg.Fallbacks)
	}
	if cfg.Fallbacks.Quote.AppearedAt.Year() != 2017 {
		t.Fatalf("兜底引用日期不正确: %s", cfg.Fallbacks.Quote.AppearedAt)
	}
	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Fatalf("刷新间隔默认值不正确: %s", cfg.Scheduler.Interval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRUMPWATCH_SOURCES_API_KEYS_FRED", "secret")
	t.Setenv("TRUMPWATCH_SOURCES_TIMEOUT", "3s")
	t.Setenv("TRUMPWATCH_SOURCES_DISABLED", "gas,oil")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Sources.APIKeys.FRED != "secret" {
		t.Fatalf("环境变量未生效: %q", cfg.Sources.APIKeys.FRED)
	}
	if cfg.Sources.Timeout != 3*time.Second {
		t.Fatalf("超时覆盖未生效: %s", cfg.Sources.Timeout)
	}
	if len(cfg.Sources.Disabled) != 2 || cfg.Sources.Disabled[1] != "oil" {
		t.Fatalf("逗号列表解析不正确: %v", cfg.Sources.Disabled)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trumpwatch.yaml")
	body := []byte("term:\n  total_days: 1000\nbaselines:\n  gas: 3.11\nrefresh:\n  interval: 1m\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Term.TotalDays != 1000 || cfg.Baselines.Gas != 3.11 || cfg.Scheduler.Interval != time.Minute {
		t.Fatalf("文件配置未生效: %+v %+v %+v", cfg.Term, cfg.Baselines, cfg.Scheduler)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Sources.Timeout = 0 }},
		{"end before start", func(c *Config) { c.Term.End = c.Term.Start.Add(-time.Hour) }},
		{"zero total days", func(c *Config) { c.Term.TotalDays = 0 }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"negative quote count", func(c *Config) { c.Sources.QuoteCount = -1 }},
		{"http without addr", func(c *Config) { c.HTTP.Enabled, c.HTTP.Addr = true, "" }},
		{"digest without token", func(c *Config) { c.Digest.Enabled, c.Digest.Telegram.ChatID = true, "1" }},
		{"digest without chat", func(c *Config) { c.Digest.Enabled, c.Digest.Telegram.BotToken = true, "t" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("%s 应校验失败", tc.name)
			}
		})
	}
}
