package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mrichange",
		Short: "Highlight signal change between a prior and a current MRI volume",
		Long: `mrichange compares two co-registered, skull-stripped MRI volumes of the same
anatomy and renders statistically significant signal increases and decreases
as colored overlays on the current scan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCompareCmd(), newInitConfigCmd(), newColormapsCmd())
	return root
}
