package main

import (
	"os"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/reportrelay/cmd/reportrelay/ask"
	mcpcmder "github.com/papercomputeco/reportrelay/cmd/reportrelay/mcp"
	servecmder "github.com/papercomputeco/reportrelay/cmd/reportrelay/serve"
)

const rootLongDesc string = `reportrelay turns prompts and images into automotive analysis
reports by relaying them to an AI completion API. The API credential
stays on the server.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reportrelay",
		Short:        "AI report relay",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to TOML config file")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
