package main

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/ericzhang631/os-project3/pkg/btree"
	"github.com/ericzhang631/os-project3/pkg/config"
	"github.com/ericzhang631/os-project3/pkg/indexfile"
	"github.com/ericzhang631/os-project3/pkg/telemetry"
)

// app holds the single current-index slot the commands operate
// against: none -> opened (on open) -> closed (on quit/exit or end of
// input). create writes a new file without filling the slot. Only one
// index may be open at a time; opening a new one closes the current
// one first.
type app struct {
	cfg config.Config
	rl  *readline.Instance
	log *log.Logger

	file *indexfile.File
	tree *btree.Tree
}

func newApp(cfg config.Config, rl *readline.Instance) *app {
	color.NoColor = !cfg.Color
	return &app{
		cfg: cfg,
		rl:  rl,
		log: log.New(io.Discard, "", 0),
	}
}

func (a *app) run() {
	fmt.Println("B-tree index shell. Type 'help' for available commands.")
	for {
		line, err := a.rl.Readline()
		if err != nil { // io.EOF (ctrl-D) or readline.ErrInterrupt (ctrl-C)
			a.closeCurrent()
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			a.printHelp()
		case "create":
			a.cmdCreate(fields[1:])
		case "open":
			a.cmdOpen(fields[1:])
		case "insert":
			a.cmdInsert(fields[1:])
		case "search":
			a.cmdSearch(fields[1:])
		case "load":
			a.requireOpen(func() { fmt.Println("not implemented yet.") })
		case "print":
			a.requireOpen(func() { fmt.Println("implemented yet.") })
		case "extract":
			a.requireOpen(func() { fmt.Println("not implemented yet.") })
		case "quit", "exit":
			a.closeCurrent()
			if a.cfg.Metrics {
				fmt.Println("Operation counters:")
				telemetry.Report(color.Output)
			}
			fmt.Println("Goodbye!")
			return
		default:
			color.Red("Unknown command: %s\n", fields[0])
			a.printHelp()
		}
	}
}

func (a *app) printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  create <path>          - create a new index")
	fmt.Println("  open <path>            - open an index, closing any current one")
	fmt.Println("  insert <key> <value>   - insert a key/value pair into the current index")
	fmt.Println("  search <key>           - search for a key in the current index")
	fmt.Println("  load                   - not implemented")
	fmt.Println("  print                  - not implemented")
	fmt.Println("  extract                - not implemented")
	fmt.Println("  quit, exit             - close the current index and exit")
}

func (a *app) requireOpen(fn func()) {
	if a.tree == nil {
		color.Red("No index currently open.\n")
		return
	}
	fn()
}

func (a *app) closeCurrent() {
	if a.tree != nil {
		if err := a.tree.Close(); err != nil {
			color.Red("Error closing index: %v\n", err)
		}
		a.tree = nil
		a.file = nil
	}
}

func (a *app) cmdCreate(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: create <path>")
		return
	}
	path := args[0]

	if indexfile.FileExists(path) {
		saved := a.rl.Config.Prompt
		a.rl.SetPrompt(fmt.Sprintf("%s exists. Overwrite? (y/n): ", path))
		ans, err := a.rl.Readline()
		a.rl.SetPrompt(saved)
		if err != nil {
			color.Red("Aborted.\n")
			return
		}
		ans = strings.ToLower(strings.TrimSpace(ans))
		if ans != "y" && ans != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	f, err := indexfile.Create(path)
	if err != nil {
		color.Red("Failed to create index: %v\n", err)
		return
	}
	// Created purely to validate the header round-trips; the REPL's
	// single-index slot is populated by a following `open`, matching
	// the original menu's split between create and open.
	if err := f.Close(); err != nil {
		color.Red("Error closing newly created index: %v\n", err)
		return
	}
	color.Green("Index %s created.\n", path)
}

func (a *app) cmdOpen(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: open <path>")
		return
	}
	path := args[0]

	a.closeCurrent()

	f, err := indexfile.Open(path)
	if err != nil {
		color.Red("Failed to open %s: %v\n", path, err)
		return
	}
	tree, err := btree.New(f, a.log)
	if err != nil {
		color.Red("Failed to open %s: %v\n", path, err)
		f.Close()
		return
	}

	a.file = f
	a.tree = tree
	color.Green("Index %s opened.\n", path)
}

func (a *app) cmdInsert(args []string) {
	if a.tree == nil {
		color.Red("No index currently open.\n")
		return
	}
	if len(args) != 2 {
		fmt.Println("Usage: insert <key> <value>")
		return
	}

	key, err1 := strconv.ParseUint(args[0], 10, 64)
	value, err2 := strconv.ParseUint(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		color.Red("Invalid input.\n")
		return
	}

	if err := a.tree.Insert(key, value); err != nil {
		color.Red("Error: %v\n", err)
	}
}

func (a *app) cmdSearch(args []string) {
	if a.tree == nil {
		color.Red("No index currently open.\n")
		return
	}
	if len(args) != 1 {
		fmt.Println("Usage: search <key>")
		return
	}

	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		color.Red("Invalid input.\n")
		return
	}

	value, found, err := a.tree.Search(key)
	if err != nil {
		color.Red("Error: %v\n", err)
		return
	}
	if !found {
		fmt.Println("Key not found.")
		return
	}
	fmt.Printf("%d %d\n", key, value)
}
