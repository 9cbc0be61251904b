package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/leshachaplin/medtrack/app"
	"github.com/leshachaplin/medtrack/internal/config"
)

func main() {
	flagSet := pflag.NewFlagSet("medtrack", pflag.ContinueOnError)
	configPath := flagSet.StringP("config", "c", os.Getenv("MEDTRACK_CONFIG"), "path to YAML config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	app.New(func() (config.Config, error) {
		return config.Load(*configPath)
	}).Start()
}
