package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vybium-cairo-io",
		Short: "Encode Cairo zkVM arguments, decode outputs and manage run artifacts",
		Long: "vybium-cairo-io converts program arguments into felts, decodes the zkVM's " +
			"serialised output into records, and reads and writes the binary trace and memory artifacts.",
		SilenceUsage: true,
	}

	root.AddCommand(
		newEncodeArgsCmd(),
		newDecodeOutputCmd(),
		newRunCmd(),
		newInspectCmd(),
		newAnnotateCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
