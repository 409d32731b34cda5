package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	g := &globals{}
	flag.StringVar(&g.configPath, "config", os.Getenv("TREASURY_CONFIG"), "path to the YAML configuration file")
	flag.StringVar(&g.fixture, "fixture", "", "load the ledger from a YAML fixture (local path or gs:// URI) instead of the configured store")
	flag.BoolVar(&g.json, "json", false, "print JSON instead of rendered Markdown")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands(g) {
		commander.Register(c, "treasury")
	}
	commander.Register(&reportCmd{g: g}, "reports")
	commander.Register(&exportCmd{g: g}, "reports")

	flag.Parse()
	ctx := context.Background()
	status := commander.Execute(ctx)
	g.close()
	os.Exit(int(status))
}
