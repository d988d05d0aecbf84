package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gurrpi/codechain/cmd/codechain/cmd"
)

// Version 编译时通过ldflags注入
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "codechain",
		Short:         "codechain is a networked blockchain node.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	rootCmd.AddCommand(cmd.GetStartupCmd().GetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "execute command error.err:%v\n", err)
		os.Exit(1)
	}
}
