package base

import (
	"testing"

	mock "github.com/gurrpi/codechain/mock/config"
)

func TestLoadNetConf(t *testing.T) {
	cfg, err := LoadNetConf(mock.GetNetConfFilePath())
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Module != DefaultModule {
		t.Fatalf("unexpected module:%s", cfg.Module)
	}
	if cfg.Address != "127.0.0.1:3485" {
		t.Fatalf("unexpected address:%s", cfg.Address)
	}
	if cfg.MaxTimers != DefaultMaxTimers {
		t.Fatalf("unexpected maxTimers:%d", cfg.MaxTimers)
	}
	if cfg.FirstTimerToken != DefaultFirstTimerToken {
		t.Fatalf("unexpected firstTimerToken:%d", cfg.FirstTimerToken)
	}
}

func TestLoadNetConfMissingFile(t *testing.T) {
	if _, err := LoadNetConf("ghost.yaml"); err == nil {
		t.Fatal("expect error for missing config file")
	}
}

func TestNewNetCtx(t *testing.T) {
	mock.InitFakeLogger()

	envConf, err := mock.GetMockEnvConf()
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := NewNetCtx(envConf)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.XLog == nil || ctx.NetCfg == nil {
		t.Fatal("net context not fully initialized")
	}

	if _, err = NewNetCtx(nil); err == nil {
		t.Fatal("expect error for nil env conf")
	}
}
