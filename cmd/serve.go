package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dnsboard/dnsboard/config"
	"github.com/dnsboard/dnsboard/evt"
	"github.com/dnsboard/dnsboard/log"
	"github.com/dnsboard/dnsboard/server"
	"github.com/dnsboard/dnsboard/util"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "start the console server (default command)",
		Run:   startServer,
	}
}

func startServer(_ *cobra.Command, _ []string) {
	cfg, err := config.NewConfig(configPath)
	util.FatalOnError("can't load config: ", err)

	log.ConfigureLogger(cfg.Log)
	printBanner()

	signals := make(chan os.Signal, 1)
	done := make(chan bool)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	srv, err := server.NewServer(&cfg)
	util.FatalOnError("can't start server: ", err)

	srv.Start()

	go func() {
		<-signals
		log.Log().Infof("Terminating...")
		srv.Stop()
		done <- true
	}()

	evt.Bus().Publish(evt.ApplicationStarted, version, buildTime)
	<-done
}

func printBanner() {
	log.Log().Info("dnsboard - DNS filtering appliance console")
	log.Log().Infof("Version: %s, Build time: %s", version, buildTime)
}
