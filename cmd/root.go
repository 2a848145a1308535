package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals
var (
	version   = "undefined"
	buildTime = "undefined"

	configPath string
	apiHost    string
	apiPort    uint16
)

//nolint:gochecknoglobals
var rootCmd = &cobra.Command{
	Use:   "dnsboard",
	Short: "dnsboard is an administrative console for a DNS filtering appliance",
	Long: `Administrative console backend for a DNS filtering appliance.
It analyzes the appliance's query log, reconciles client identities and
produces durable export artifacts.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer(cmd, args)
	},
}

func apiURL(path string) string {
	return fmt.Sprintf("http://%s:%d%s", apiHost, apiPort, path)
}

//nolint:gochecknoinits
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&apiHost, "apiHost", "localhost", "host of dnsboard (API)")
	rootCmd.PersistentFlags().Uint16Var(&apiPort, "apiPort", 4000, "port of dnsboard (API)")

	rootCmd.AddCommand(newServeCommand(), NewSearchCommand())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
