package cmd

import (
	"github.com/spf13/cobra"
)

// BaseCmd 定义子命令基础结构
type BaseCmd struct {
	Cmd *cobra.Command
}

func (t *BaseCmd) GetCmd() *cobra.Command {
	return t.Cmd
}

func (t *BaseCmd) SetCmd(cmd *cobra.Command) {
	t.Cmd = cmd
}
