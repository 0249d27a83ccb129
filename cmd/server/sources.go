// CLAUDE:SUMMARY CLI subcommand that lists, relocates and probes the taxonomy sources kept in the SQLite registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/touchstone-factors/pkg/sources"
)

func cmdSources(args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	dbPath := fs.String("db", "", "sources database (overrides config)")
	fs.Parse(args)

	cfg := mustLoadConfig(*cfgPath)
	if *dbPath != "" {
		cfg.SourcesDB = *dbPath
	}
	if cfg.SourcesDB == "" {
		cfg.SourcesDB = "sources.db"
	}
	logger := newLogger(cfg.LogLevel)

	sdb := openSources(cfg, logger)
	defer sdb.Close()

	switch fs.Arg(0) {
	case "", "list":
		printSources(sdb)
	case "set":
		if fs.NArg() != 3 {
			fmt.Fprintln(os.Stderr, "Usage: factors sources set <name> <location>")
			os.Exit(1)
		}
		if err := sdb.SetLocation(fs.Arg(1), fs.Arg(2)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[%s] -> %s\n", fs.Arg(1), fs.Arg(2))
	case "check":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sources.NewChecker(sdb, logger, cfg.CheckInterval).CheckAll(ctx)
		printSources(sdb)
	default:
		fmt.Fprintln(os.Stderr, "Usage: factors sources [list | set <name> <location> | check]")
		os.Exit(1)
	}
}

func printSources(sdb *sources.DB) {
	list, err := sdb.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Taxonomy sources:")
	fmt.Println()
	for _, src := range list {
		status := "  [unchecked]"
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
			if src.LastError != nil {
				status += " " + *src.LastError
			}
		}
		fmt.Printf("  %-15s  %s%s\n", src.Name, src.Location, status)
	}
}
