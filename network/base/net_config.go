package base

import (
	"fmt"

	"github.com/gurrpi/codechain/common/utils"
	"github.com/spf13/viper"
)

// default settings
const (
	DefaultModule          = "network"
	DefaultPort            = 3485 // p2p port
	DefaultAddress         = "127.0.0.1:3485"
	DefaultMaxTimers       = 100
	DefaultFirstTimerToken = 0
	DefaultMaxMessageSize  = 8 // MB
	DefaultTimeout         = 30
	DefaultMaxPendingMsgs  = 1024
)

// NetConf 网络组件配置
type NetConf struct {
	// module is the name of p2p module plugin
	Module string `yaml:"module,omitempty"`
	// address of the node server
	Address string `yaml:"address,omitempty"`
	// bootNodes addresses of the seed nodes
	BootNodes []string `yaml:"bootNodes,omitempty"`
	// maxTimers 每个节点定时器槽位上限
	MaxTimers int `yaml:"maxTimers,omitempty"`
	// firstTimerToken 定时器槽位起始token
	FirstTimerToken int `yaml:"firstTimerToken,omitempty"`
	// maxMessageSize max message size in MB
	MaxMessageSize int64 `yaml:"maxMessageSize,omitempty"`
	// timeout connection timeout in seconds
	Timeout int64 `yaml:"timeout,omitempty"`
	// maxPendingMsgs 每个对端待发送队列上限
	MaxPendingMsgs int `yaml:"maxPendingMsgs,omitempty"`
}

func LoadNetConf(cfgFile string) (*NetConf, error) {
	cfg := GetDefNetConf()
	err := cfg.loadConf(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load network config failed.err:%s", err)
	}

	return cfg, nil
}

func GetDefNetConf() *NetConf {
	return &NetConf{
		Module:          DefaultModule,
		Address:         DefaultAddress,
		MaxTimers:       DefaultMaxTimers,
		FirstTimerToken: DefaultFirstTimerToken,
		MaxMessageSize:  DefaultMaxMessageSize,
		Timeout:         DefaultTimeout,
		MaxPendingMsgs:  DefaultMaxPendingMsgs,
	}
}

func (t *NetConf) loadConf(cfgFile string) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return fmt.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	err := viperObj.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read config failed.path:%s,err:%v", cfgFile, err)
	}

	if err = viperObj.Unmarshal(t); err != nil {
		return fmt.Errorf("unmatshal config failed.path:%s,err:%v", cfgFile, err)
	}

	return nil
}
