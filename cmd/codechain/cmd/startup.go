package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	xconf "github.com/gurrpi/codechain/common/config"
	"github.com/gurrpi/codechain/common/metrics"
	"github.com/gurrpi/codechain/consensus/solo"
	"github.com/gurrpi/codechain/extensions/keepalive"
	"github.com/gurrpi/codechain/ioservice"
	"github.com/gurrpi/codechain/logger"
	"github.com/gurrpi/codechain/network"
	netBase "github.com/gurrpi/codechain/network/base"
	"github.com/gurrpi/codechain/p2p"
)

type StartupCmd struct {
	BaseCmd
}

func GetStartupCmd() *StartupCmd {
	startupCmdIns := new(StartupCmd)

	// 定义命令行参数变量
	var envCfgPath string

	startupCmdIns.Cmd = &cobra.Command{
		Use:           "startup",
		Short:         "Start up the network node service.",
		Example:       "codechain startup --conf ./conf/env.yaml",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return StartupNode(envCfgPath)
		},
	}

	// 设置命令行参数并绑定变量
	startupCmdIns.Cmd.Flags().StringVarP(&envCfgPath, "conf", "c", "./conf/env.yaml",
		"node environment config file path")

	return startupCmdIns
}

// StartupNode 启动节点
func StartupNode(envCfgPath string) error {
	// 加载基础配置
	envConf, err := xconf.LoadEnvConf(envCfgPath)
	if err != nil {
		return err
	}

	// 初始化日志
	logger.InitLog(envConf.GenConfFilePath(envConf.LogConf), envConf.GenDirAbsPath(envConf.LogDir))

	if envConf.MetricSwitch {
		metrics.RegisterMetrics()
	}

	ctx, err := netBase.NewNetCtx(envConf)
	if err != nil {
		return fmt.Errorf("new net context failed.err:%v", err)
	}

	// io服务先建队列后挂处理器，解决client与handler的相互依赖
	timerSvc, err := ioservice.NewService("timer")
	if err != nil {
		return err
	}
	p2pSvc, err := ioservice.NewService("p2p")
	if err != nil {
		return err
	}

	client := network.NewClient(ctx, p2pSvc.Channel(), timerSvc.Channel())
	timerSvc.RegisterHandler(network.NewTimerHandler(ctx, client))

	netServ, err := p2p.NewService(ctx, client)
	if err != nil {
		return fmt.Errorf("new p2p service failed.err:%v", err)
	}
	p2pSvc.RegisterHandler(netServ)

	// 注册扩展协议
	engine := solo.New()
	if ext := engine.NetworkExtension(); ext != nil {
		client.Register(ext)
	}
	ka, err := keepalive.NewExtension(0)
	if err != nil {
		return fmt.Errorf("new keepalive extension failed.err:%v", err)
	}
	client.Register(ka)

	if err = timerSvc.Start(); err != nil {
		return err
	}
	if err = p2pSvc.Start(); err != nil {
		timerSvc.Stop()
		return err
	}

	for _, ev := range client.Versions() {
		client.Initialize(ev.Name)
	}

	if err = netServ.Start(); err != nil {
		p2pSvc.Stop()
		timerSvc.Stop()
		return fmt.Errorf("start p2p service failed.err:%v", err)
	}

	// 阻塞等待进程退出指令
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sigChan

	netServ.Stop()
	client.Close()
	p2pSvc.Stop()
	timerSvc.Stop()
	return nil
}
