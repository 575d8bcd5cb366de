// Command catalogctl verifies catalog files and rule documents offline,
// without a database or a running server, and follows the domain events a
// running server relays to NATS.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Dry-run catalog verification",
		Long: `catalogctl runs the catalog verification pipeline on a local file.

Nothing is staged or written: the output shows the verdict every row would
get with the given rule set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newEventsCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}
