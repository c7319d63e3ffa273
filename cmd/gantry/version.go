package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gantry-dev/gantry"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the Gantry version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gantry %s (%s, %s/%s)\n",
				gantry.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
