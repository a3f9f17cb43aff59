package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/discoveryping/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Discovery ping service",
		Long:          "discoveryping looks up a service in the discovery registry and forwards /discoveryClient to the first instance's /ping.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", serviceName, version.GetVersionInfo())
			return err
		},
	}
}
