// Command evilvm is the command-line interface to Evil VM, a parametric
// virtual machine and its assembler.
package main

import (
	"context"
	"os"

	"github.com/dextero/evilvm/internal/cli"
	"github.com/dextero/evilvm/internal/cli/cmd"
	"github.com/dextero/evilvm/internal/log"
)

var commands = []cli.Command{
	cmd.Assembler(),
	cmd.Runner(),
	cmd.Demo(),
}

// Entry point.
func main() {
	if level, ok := os.LookupEnv("LOGLEVEL"); ok {
		_ = log.LogLevel.UnmarshalText([]byte(level))
	}

	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
