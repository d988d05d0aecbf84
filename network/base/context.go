package base

import (
	"fmt"

	xconf "github.com/gurrpi/codechain/common/config"
	xctx "github.com/gurrpi/codechain/common/context"
	"github.com/gurrpi/codechain/common/timer"
	"github.com/gurrpi/codechain/logger"
)

// 网络组件运行上下文环境
type NetCtx struct {
	// 基础上下文
	xctx.BaseCtx
	// 运行环境配置
	EnvCfg *xconf.EnvConf
	// 网络组件配置
	NetCfg *NetConf
}

func NewNetCtx(envCfg *xconf.EnvConf) (*NetCtx, error) {
	if envCfg == nil {
		return nil, fmt.Errorf("create net context failed because env conf is nil")
	}

	// 加载配置
	cfg, err := LoadNetConf(envCfg.GenConfFilePath(envCfg.NetConf))
	if err != nil {
		return nil, fmt.Errorf("create net context failed because config load fail.err:%v", err)
	}

	log, err := logger.NewLogger("", DefaultModule)
	if err != nil {
		return nil, fmt.Errorf("create net context failed because new logger error.err:%v", err)
	}

	ctx := new(NetCtx)
	ctx.XLog = log
	ctx.Timer = timer.NewXTimer()
	ctx.EnvCfg = envCfg
	ctx.NetCfg = cfg

	return ctx, nil
}
