package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-view/pkg/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", config.WithEnvironment(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLThenEnvironment(t *testing.T) {
	path := writeFile(t, "goview.yaml", `
templates:
  dir: site
  paths: [".", "themes/dark"]
  locales: [fr]
engine:
  layout: main
  wrappers: [card]
storage:
  driver: memory
  size: 64
server:
  read_timeout: 3s
`)

	cfg, err := config.Load(path, config.WithEnvironment(map[string]string{
		"GOVIEW_ENGINE_LAYOUT":       "print",
		"GOVIEW_STORAGE_DRIVER":      "redis",
		"GOVIEW_STORAGE_REDIS_ADDR":  "cache:6379",
		"GOVIEW_STORAGE_REDIS_DB":    "2",
		"GOVIEW_TEMPLATES_EXTENSION": ".html",
		"UNRELATED":                  "x",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Templates.Dir != "site" || cfg.Templates.Extension != ".html" {
		t.Fatalf("unexpected templates config %+v", cfg.Templates)
	}
	if diff := cmp.Diff([]string{".", "themes/dark"}, cfg.Templates.Paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.Layout != "print" {
		t.Fatalf("environment should override yaml, got layout %q", cfg.Engine.Layout)
	}
	if diff := cmp.Diff([]string{"card"}, cfg.Engine.Wrappers); diff != "" {
		t.Fatalf("wrappers mismatch (-want +got):\n%s", diff)
	}
	if cfg.Storage.Driver != config.DriverRedis || cfg.Storage.Redis.Addr != "cache:6379" || cfg.Storage.Redis.DB != 2 {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Size != 64 {
		t.Fatalf("yaml size should survive, got %d", cfg.Storage.Size)
	}
	if cfg.Server.ReadTimeout != 3*time.Second || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
}

func TestLoad_EnvFiles(t *testing.T) {
	first := writeFile(t, "base.env", "GOVIEW_LOG_LEVEL=debug\nGOVIEW_ENGINE_WRAPPERS=outer,inner\n")
	second := writeFile(t, "local.env", "GOVIEW_LOG_LEVEL=warn\n")

	cfg, err := config.Load("",
		config.WithEnvFiles(first, "", second),
		config.WithEnvironment(map[string]string{"GOVIEW_SERVER_ADDR": ":9090"}),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("later env file should win, got %q", cfg.Log.Level)
	}
	if diff := cmp.Diff([]string{"outer", "inner"}, cfg.Engine.Wrappers); diff != "" {
		t.Fatalf("wrappers mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("process environment should apply, got %q", cfg.Server.Addr)
	}

	if _, err := config.Load("", config.WithEnvFiles(filepath.Join(t.TempDir(), "missing.env"))); err == nil {
		t.Fatalf("expected missing env file error")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}

	bad := writeFile(t, "bad.yaml", "templates: [oops")
	if _, err := config.Load(bad, config.WithEnvironment(map[string]string{})); err == nil {
		t.Fatalf("expected yaml error")
	}

	_, err := config.Load("", config.WithEnvironment(map[string]string{"GOVIEW_STORAGE_SIZE": "lots"}))
	if err == nil {
		t.Fatalf("expected environment parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Templates.Dir = ""
	cfg.Templates.Extension = "tpl"
	cfg.Storage.Driver = "disk"
	cfg.Storage.Size = -1
	cfg.Theme.Name = "acme"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"templates.dir", "templates.extension", "storage.driver", "storage.size", "theme.manifest"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("validation error should mention %s: %v", want, err)
		}
	}

	cfg = config.Default()
	cfg.Storage.Driver = config.DriverRedis
	cfg.Storage.Redis.Addr = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "storage.redis.addr") {
		t.Fatalf("expected redis addr error, got %v", err)
	}

	if err := config.Default().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
