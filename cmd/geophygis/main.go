package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/geovolt/geophygis/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := NewGeophygisCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func NewGeophygisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geophygis [flags] [options]",
		Short: "geophygis prepares geoelectrical survey profiles for inversion and documentation.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdExport())
	cmd.AddCommand(cli.NewCmdImport())
	cmd.AddCommand(cli.NewCmdRuns())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
