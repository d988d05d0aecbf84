package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConf(t *testing.T) (string, string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "logger_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	conf := []byte(`module: codechain
filename: test
fmt: logfmt
level: debug
console: false
rotateInterval: 0
rotateBackups: 0
async: false
`)
	confFile := filepath.Join(dir, "log.yaml")
	if err = os.WriteFile(confFile, conf, 0644); err != nil {
		t.Fatal(err)
	}
	return confFile, filepath.Join(dir, "logs")
}

func TestLoadLogConf(t *testing.T) {
	confFile, _ := writeTestConf(t)

	cfg, err := LoadLogConf(confFile)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Module != "codechain" || cfg.Filename != "test" {
		t.Fatalf("config mismatch:%+v", cfg)
	}
	if cfg.Console || cfg.RotateInterval != 0 {
		t.Fatalf("config mismatch:%+v", cfg)
	}
}

func TestLoadLogConfMissingFile(t *testing.T) {
	if _, err := LoadLogConf("ghost.yaml"); err == nil {
		t.Fatal("expect error for missing config file")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	confFile, logDir := writeTestConf(t)
	InitLog(confFile, logDir)

	log, err := NewLogger("", "test")
	if err != nil {
		t.Fatal(err)
	}

	log.SetCommField("chain", "codechain")
	log.SetInfoField("height", 1024)
	log.Debug("test debug msg", "key", "value")
	log.Info("test info msg")
	log.Warn("test warn msg", "err", "some error")
	log.Error("test error msg")
}

func TestOpenLogRotate(t *testing.T) {
	_, logDir := writeTestConf(t)

	cfg := GetDefLogConf()
	cfg.Console = false
	cfg.RotateInterval = 1
	cfg.RotateBackups = 1

	lg, err := OpenLog(cfg, logDir)
	if err != nil {
		t.Fatal(err)
	}
	lg.Info("rotate handler smoke", "n", 1)
}
