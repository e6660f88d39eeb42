package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// newRootCmd constructs the command tree. Without a subcommand the probe
// runs, so `freehit --provider Gemini` and `freehit run --provider Gemini`
// are equivalent.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	probe := func(cmd *cobra.Command, args []string) error {
		return runProbe(cmd.Context(), args, stdout, stderr)
	}

	root := &cobra.Command{
		Use:                "freehit",
		Short:              "Probe hosted LLM free-tier quotas by rotating across models",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE:               probe,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(&cobra.Command{
		Use:                "run",
		Short:              "Run the probe loop (default)",
		DisableFlagParsing: true,
		RunE:               probe,
	})
	root.AddCommand(newModelsCmd(stdout))
	return root
}
