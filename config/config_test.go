package config

import "testing"

func TestParseDefaults(t *testing.T) {
	defaults := Default()
	cfg, err := Parse([]string{}, func(string) (string, bool) { return "", false }, defaults)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.MdnsTimeoutSec != 3 || cfg.DatasetKind != "tuple" || cfg.WebAddr != ":8080" || cfg.HistoryLimit != 500 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	env := map[string]string{
		"RADIOTX_IIOD_URI":     "ip:192.168.2.1",
		"RADIOTX_DATASET_KIND": "tabular",
		"RADIOTX_MDNS_TIMEOUT_SEC": "0",
		"RADIOTX_HISTORY_LIMIT": "1000",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	defaults := Default()
	cfg, err := Parse([]string{"-log-level", "debug"}, lookup, defaults)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.IIODURI != "ip:192.168.2.1" || cfg.DatasetKind != "tabular" || cfg.MdnsTimeoutSec != 0 || cfg.HistoryLimit != 1000 || cfg.LogLevel != "debug" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	env := map[string]string{"RADIOTX_DATASET_KIND": "tabular"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg, err := Parse([]string{"-dataset-kind", "hierarchical"}, lookup, Default())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.DatasetKind != "hierarchical" {
		t.Fatalf("flag did not override env: %#v", cfg)
	}
}

func TestToPersistentRoundTrips(t *testing.T) {
	cfg, err := Parse([]string{"-dataset-path", "/tmp/data.bin", "-ssh-host", "pluto.local"}, func(string) (string, bool) { return "", false }, Default())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := ToPersistent(cfg)
	if p.DatasetPath != "/tmp/data.bin" || p.SSHHost != "pluto.local" {
		t.Fatalf("ToPersistent dropped fields: %#v", p)
	}
}

func TestLoadOrCreateWritesDefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.json"

	first, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if first != Default() {
		t.Fatalf("expected defaults on first run, got %#v", first)
	}

	second, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate (reload): %v", err)
	}
	if second != first {
		t.Fatalf("reload mismatch: %#v vs %#v", second, first)
	}
}
