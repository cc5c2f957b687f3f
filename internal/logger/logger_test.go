package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		present  []string
		filtered []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			if err := InitWithFileConfig(tt.level, FileConfig{Path: path, MaxSizeMB: 10}, false); err != nil {
				t.Fatalf("InitWithFileConfig() error = %v", err)
			}

			Debug("node visited", zap.String("node", "crate"))
			Info("frame rendered", zap.Int("draws", 3))
			Warn("renderable skipped", zap.String("reason", "no mesh"))
			Error("device failed")
			Sync()

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			out := string(data)
			for _, want := range tt.present {
				if !strings.Contains(out, want) {
					t.Errorf("expected %s in output", want)
				}
			}
			for _, no := range tt.filtered {
				if strings.Contains(out, no) {
					t.Errorf("unexpected %s in output at level %s", no, tt.level)
				}
			}
			if tt.level == "debug" && !strings.Contains(out, "crate") {
				t.Errorf("expected typed field in output, got %q", out)
			}
		})
	}
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewer.log")

	// lumberjack rotates at MaxSizeMB; 1MB is its smallest unit.
	cfg := FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	if err := InitWithFileConfig("info", cfg, false); err != nil {
		t.Fatalf("InitWithFileConfig() error = %v", err)
	}
	defer Sync()

	payload := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("frame %d %s", i, payload)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	rotated := 0
	for _, e := range entries {
		name := e.Name()
		if name == "viewer.log" || !strings.HasPrefix(name, "viewer") {
			continue
		}
		rotated++
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s has no timestamp", name)
		}
	}
	if rotated == 0 {
		t.Error("expected at least one rotated file")
	}
}

func TestUseAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	defer Use(nil)

	Named("scene").Warn("renderable skipped", zap.String("node", "glass"))
	Sugar.Infof("fps %d", 60)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].LoggerName != "scene" {
		t.Errorf("LoggerName = %q, want scene", entries[0].LoggerName)
	}
	if got := entries[0].ContextMap()["node"]; got != "glass" {
		t.Errorf("node field = %v, want glass", got)
	}
	if entries[1].Message != "fps 60" {
		t.Errorf("sugar message = %q, want %q", entries[1].Message, "fps 60")
	}

	Use(nil)
	if Log == nil || Sugar == nil {
		t.Fatal("Use(nil) should install a no-op logger")
	}
	Info("discarded")
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("trellis.log")
	want := FileConfig{Path: "trellis.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig() = %+v, want %+v", cfg, want)
	}
}
