// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lassandro/go6461/pkg/assembler"
	"github.com/lassandro/go6461/pkg/machine"
	"github.com/lassandro/go6461/pkg/objfile"
)

type options struct {
	Debug   bool
	Limit   int
	Start   string
	Symbols string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "go6461 [flags] loadfile",
	Short: "Runs a load file on the simulated machine",
	Long: `go6461 loads the "address word" pairs of a load file into memory and
executes them from the lowest loaded address until HLT.

With --debug the machine starts stopped in an interactive debugger. The
symbol table written by go6461-asm --debug is picked up from next to the load
file. Pressing Ctrl-C while the program runs returns to the debugger.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], &opts)
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.BoolVar(
		&opts.Debug, "debug", false, "Runs the machine in a debug CLI",
	)
	flags.IntVar(
		&opts.Limit, "limit", 0,
		"Stops after this many instructions, 0 for no limit",
	)
	flags.StringVar(
		&opts.Start, "start", "",
		"Start `address` or label, defaults to the lowest loaded address",
	)
	flags.StringVar(
		&opts.Symbols, "symbols", "",
		"Symbol `file` for the debugger, defaults to the load file with "+
			"extension '.sym'",
	)

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)
}

// Accepts both spellings of multi-word flags, e.g. --log_dir and --log-dir
func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func readImage(path string) (assembler.LoadImage, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	return objfile.ReadLoad(file)
}

func readSymbols(path string) (*assembler.SymTable, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	return objfile.ReadSymbols(file)
}

func printState(state *machine.MachineState) {
	fmt.Printf("\033[1mPC:\033[0m %06o\t\033[1mIR:\033[0m %06o\n", state.Program, state.Instruction)

	for i, register := range state.Registers {
		fmt.Printf("\033[1mR%d:\033[0m %06o\t", i, register)
	}

	fmt.Println()

	for i := 1; i < len(state.Index); i++ {
		fmt.Printf("\033[1mX%d:\033[0m %06o\t", i, state.Index[i])
	}

	fmt.Println()
}

func run(path string, opts *options) error {
	image, err := readImage(path)

	if err != nil {
		return err
	}

	var mc machine.Machine

	if err := mc.Load(image); err != nil {
		return err
	}

	if !opts.Debug {
		if opts.Start != "" {
			start, err := lookupAddress(nil, opts.Start)

			if err != nil {
				return err
			}

			mc.State.Program = start
		}

		err := mc.Run(opts.Limit)
		printState(&mc.State)
		return err
	}

	sh := newShell(&mc, image)

	symbols := opts.Symbols
	if symbols == "" {
		symbols = strings.TrimSuffix(path, filepath.Ext(path)) + ".sym"
	}

	if symtable, err := readSymbols(symbols); err == nil {
		sh.dbg.SymTable = symtable
	} else {
		glog.Warningf("Error loading symbol file: %v", err)
	}

	if opts.Start != "" {
		start, err := lookupAddress(sh.dbg, opts.Start)

		if err != nil {
			return err
		}

		mc.State.Program = start
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			sh.dbg.Break.Store(true)
		}
	}()

	sh.repl(func() {
		sh.dbg.PrintSource(&mc.State, mc.State.Program, 1)
	})

	for steps := 0; !sh.quit && !mc.State.Halted; steps++ {
		if opts.Limit > 0 && steps >= opts.Limit {
			return &machine.StepLimitError{Limit: opts.Limit}
		}

		if err := mc.Step(); err != nil {
			sh.dbg.PrintRegisters(&mc.State)
			return err
		}
	}

	if mc.State.Halted {
		fmt.Println("Program halted")
		sh.dbg.PrintRegisters(&mc.State)
	}

	return nil
}

func go6461() int {
	if err := flag.CommandLine.Set("logtostderr", "true"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		glog.Error(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(go6461())
}
