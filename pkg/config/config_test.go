package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestExportEnvironmentDotEnv(t *testing.T) {
	t.Setenv("GOALCFG_TEST_KEEP", "from-env")
	t.Setenv("GOALCFG_TEST_TTL", "")
	os.Unsetenv("GOALCFG_TEST_TTL")

	path := writeFile(t, ".env", "GOALCFG_TEST_TTL=90m\nGOALCFG_TEST_KEEP=from-file\n")
	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("GOALCFG_TEST_TTL"); got != "90m" {
		t.Fatalf("GOALCFG_TEST_TTL = %q", got)
	}
	if got := os.Getenv("GOALCFG_TEST_KEEP"); got != "from-env" {
		t.Fatalf("GOALCFG_TEST_KEEP = %q, process env must win", got)
	}
}

func TestExportEnvironmentNestedYAML(t *testing.T) {
	t.Setenv("GOALCFG_REDIS_ADDRESS", "")
	os.Unsetenv("GOALCFG_REDIS_ADDRESS")

	path := writeFile(t, "settings.yaml", "goalcfg:\n  redis:\n    address: cache:6379\n")
	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("GOALCFG_REDIS_ADDRESS"); got != "cache:6379" {
		t.Fatalf("GOALCFG_REDIS_ADDRESS = %q", got)
	}
}

func TestExportEnvironmentIfExistsMissing(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}

type sampleConfig struct {
	TTL  time.Duration `envconfig:"TTL" default:"1h"`
	Name string        `envconfig:"NAME" required:"true"`
}

func TestNewBindsPrefix(t *testing.T) {
	t.Setenv("GOALCFG_SAMPLE_NAME", "gym")

	conf, err := New[sampleConfig]("GOALCFG_SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "gym" || conf.TTL != time.Hour {
		t.Fatalf("conf = %+v", conf)
	}
}

func TestNewMissingRequired(t *testing.T) {
	if _, err := New[sampleConfig]("GOALCFG_MISSING"); err == nil {
		t.Fatal("New() expected missing required error")
	}
}
