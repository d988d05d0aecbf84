package config

import (
	"math"
	"math/rand"
	"path/filepath"
	"strconv"

	xconf "github.com/gurrpi/codechain/common/config"
	"github.com/gurrpi/codechain/common/utils"
	"github.com/gurrpi/codechain/logger"
)

var dir = utils.GetCurFileDir()

func GetMockEnvConf(paths ...string) (*xconf.EnvConf, error) {
	path := "conf/env.yaml"
	if len(paths) > 0 {
		path = paths[0]
	}

	econfPath := filepath.Join(dir, path)
	econf, err := xconf.LoadEnvConf(econfPath)
	if err != nil {
		return nil, err
	}

	// 测试运行目录不定，根目录固定到mock目录
	econf.RootPath = dir
	return econf, nil
}

func GetLogConfFilePath() string {
	return filepath.Join(dir, "conf/log.yaml")
}

func GetNetConfFilePath() string {
	return filepath.Join(dir, "conf/network.yaml")
}

func GetTempDirPath() string {
	return filepath.Join(dir, "temp", strconv.Itoa(rand.Intn(math.MaxInt)))
}

func InitFakeLogger() {
	confFile := filepath.Join(dir, "conf/log.yaml")
	logDir := filepath.Join(dir, "logs")
	logger.InitLog(confFile, logDir)
}
