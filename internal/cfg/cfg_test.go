package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODEL_PATH", "")
	t.Setenv("SCORING_URL", "")
	t.Setenv("PROB_THRESHOLD", "")
	t.Setenv("LISTEN_PORT", "")
	t.Setenv("METRICS_PORT", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ModelPath != "model.onnx" {
		t.Errorf("ModelPath = %q, want model.onnx", s.ModelPath)
	}
	if s.Threshold != 0.5 {
		t.Errorf("Threshold = %g, want 0.5", s.Threshold)
	}
	if s.SidecarTimeout != 5*time.Second {
		t.Errorf("SidecarTimeout = %v, want 5s", s.SidecarTimeout)
	}
	if s.ListenPort != 8080 || s.MetricsPort != 9090 {
		t.Errorf("ports = %d/%d, want 8080/9090", s.ListenPort, s.MetricsPort)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODEL_PATH", "/models/m6a.onnx")
	t.Setenv("PROB_THRESHOLD", "0.7")
	t.Setenv("SIDECAR_TIMEOUT", "2s")
	t.Setenv("LISTEN_PORT", "8181")
	t.Setenv("METRICS_PORT", "9191")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ModelPath != "/models/m6a.onnx" {
		t.Errorf("ModelPath = %q", s.ModelPath)
	}
	if s.Threshold != 0.7 {
		t.Errorf("Threshold = %g, want 0.7", s.Threshold)
	}
	if s.SidecarTimeout != 2*time.Second {
		t.Errorf("SidecarTimeout = %v, want 2s", s.SidecarTimeout)
	}
	if s.ListenPort != 8181 {
		t.Errorf("ListenPort = %d, want 8181", s.ListenPort)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `ml:
  modelPath: /models/m6a.onnx
  threshold: 0.65
  sidecarTimeout: 3s
  restTimeout: 2s
system:
  dataPath: /var/lib/m6a
  listenPort: 8282
  metricsPort: 9292
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MODEL_PATH", "")
	t.Setenv("PROB_THRESHOLD", "")
	t.Setenv("LISTEN_PORT", "")
	t.Setenv("METRICS_PORT", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ModelPath != "/models/m6a.onnx" {
		t.Errorf("ModelPath = %q", s.ModelPath)
	}
	if s.Threshold != 0.65 {
		t.Errorf("Threshold = %g, want 0.65", s.Threshold)
	}
	if s.SidecarTimeout != 3*time.Second {
		t.Errorf("SidecarTimeout = %v, want 3s", s.SidecarTimeout)
	}
	if s.DataPath != "/var/lib/m6a" {
		t.Errorf("DataPath = %q", s.DataPath)
	}
	if s.ListenPort != 8282 || s.MetricsPort != 9292 {
		t.Errorf("ports = %d/%d", s.ListenPort, s.MetricsPort)
	}
}

func TestYAMLEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `ml:
  modelPath: /models/m6a.onnx
  threshold: 0.65
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PROB_THRESHOLD", "0.8")
	t.Setenv("LISTEN_PORT", "")
	t.Setenv("METRICS_PORT", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Threshold != 0.8 {
		t.Errorf("Threshold = %g, env should win over YAML", s.Threshold)
	}
}

func TestValidation(t *testing.T) {
	base := func() Settings {
		return Settings{
			ModelPath:      "model.onnx",
			Threshold:      0.5,
			SidecarTimeout: 5 * time.Second,
			RESTTimeout:    5 * time.Second,
			ListenPort:     8080,
			MetricsPort:    9090,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"valid", func(s *Settings) {}, true},
		{"threshold zero is legal", func(s *Settings) { s.Threshold = 0 }, true},
		{"threshold one is legal", func(s *Settings) { s.Threshold = 1 }, true},
		{"threshold above one", func(s *Settings) { s.Threshold = 1.01 }, false},
		{"threshold negative", func(s *Settings) { s.Threshold = -0.1 }, false},
		{"no model and no scoring URL", func(s *Settings) { s.ModelPath = "" }, false},
		{"scoring URL alone is enough", func(s *Settings) { s.ModelPath = ""; s.ScoringURL = "http://scorer:8080" }, true},
		{"sidecar timeout too small", func(s *Settings) { s.SidecarTimeout = time.Millisecond }, false},
		{"privileged listen port", func(s *Settings) { s.ListenPort = 80 }, false},
		{"port collision", func(s *Settings) { s.MetricsPort = 8080 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(&s)
			err := validateSettings(&s)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
