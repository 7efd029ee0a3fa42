// Command btreeidx is the interactive front end for the B-tree index:
// a REPL over the commands the core exposes (create, open, insert,
// search, quit) plus the named-but-unimplemented load/print/extract.
// The REPL itself — prompting, parsing, menu text — is deliberately
// thin; the operations it calls are the whole point.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"

	"github.com/ericzhang631/os-project3/pkg/config"
	"github.com/ericzhang631/os-project3/pkg/telemetry"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML defaults file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", configPath, err)
		os.Exit(1)
	}

	if cfg.Metrics {
		if err := telemetry.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to enable metrics: %v\n", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start line editor: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	a := newApp(cfg, rl)
	a.run()
}
