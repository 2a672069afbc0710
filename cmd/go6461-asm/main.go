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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/lassandro/go6461/pkg/assembler"
	"github.com/lassandro/go6461/pkg/objfile"
)

type options struct {
	SourcePath   string
	ListingPath  string
	LoadPath     string
	Debug        bool
	LegacyLabels bool
	DumpSymbols  bool
}

var errAssembly = errors.New("assembly failed")

var opts options

var rootCmd = &cobra.Command{
	Use:   "go6461-asm [flags] [source]",
	Short: "Assembles a source file into a listing and a load file",
	Long: `go6461-asm runs the two-pass assembler over a source file and writes
the listing (one row per source line, with addresses, octal words and error
annotations) and the load file (one "address word" pair per assembled word).

The source defaults to input.txt. When no source is named and standard input
is not a terminal, or the source is "-", the program is read from standard
input. Lines that fail to assemble are annotated in the listing and reported
on standard error; the outputs are still written and the exit status is 1.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			opts.SourcePath = args[0]
		} else if !term.IsTerminal(int(os.Stdin.Fd())) {
			opts.SourcePath = "-"
		}

		return assemble(&opts)
	},
}

func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(
		&opts.ListingPath, "listing", "l", "listing.txt",
		"Listing output `file`",
	)
	flags.StringVarP(
		&opts.LoadPath, "load", "o", "load.txt",
		"Load output `file`",
	)
	flags.BoolVar(
		&opts.Debug, "debug", false,
		"Writes a symbol table for the simulator's debugger next to the "+
			"load file, with extension '.sym'",
	)
	flags.BoolVar(
		&opts.LegacyLabels, "legacy-labels", false,
		"Only assemble HLT after a label, without reserving an address for "+
			"it in the first pass",
	)
	flags.BoolVar(
		&opts.DumpSymbols, "dump-symbols", false,
		"Prints the label table to standard error",
	)

	opts.SourcePath = "input.txt"

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlag)
}

// Accepts both spellings of multi-word flags, e.g. --log_dir and --log-dir
func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func readSource(path string) ([]string, error) {
	var input io.Reader = os.Stdin

	if path != "-" {
		file, err := os.Open(path)

		if err != nil {
			return nil, err
		}

		defer file.Close()

		if stat, err := file.Stat(); err != nil {
			return nil, err
		} else if stat.IsDir() {
			return nil, fmt.Errorf("%s is not a valid assembly file", path)
		}

		input = file
	}

	return assembler.ReadSource(input)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return file.Close()
}

// Prints an error along with its source line and a marker under the column
func reportError(source string, lines []string, err error) {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok {
		glog.Errorf("%s:%v", source, err)
		return
	}

	cursor := tokenErr.GetPosition()

	if cursor.Line < 1 || cursor.Line > len(lines) {
		glog.Errorf("%s:%v", source, err)
		return
	}

	glog.Errorf(
		"%s:%v\n%s\n\033[31m%*s\033[0m",
		source,
		err,
		lines[cursor.Line-1],
		cursor.Column,
		"^",
	)
}

func assemble(opts *options) error {
	source := opts.SourcePath
	if source == "-" {
		source = "<stdin>"
	}

	lines, err := readSource(opts.SourcePath)

	if err != nil {
		return err
	}

	program := assembler.Assemble(
		lines, assembler.Options{LegacyLabels: opts.LegacyLabels},
	)

	if err := writeFile(opts.ListingPath, func(w io.Writer) error {
		return objfile.WriteListing(w, program.Listing)
	}); err != nil {
		return err
	}

	if err := writeFile(opts.LoadPath, func(w io.Writer) error {
		return objfile.WriteLoad(w, program.Image)
	}); err != nil {
		return err
	}

	if opts.Debug {
		abs := ""
		if opts.SourcePath != "-" {
			if abs, err = filepath.Abs(opts.SourcePath); err != nil {
				glog.Warning(err)
				abs = ""
			}
		}

		symtable := assembler.NewSymTable(abs, program)
		filename := strings.TrimSuffix(
			opts.LoadPath, filepath.Ext(opts.LoadPath),
		) + ".sym"

		if err := writeFile(filename, func(w io.Writer) error {
			return objfile.WriteSymbols(w, symtable)
		}); err != nil {
			return err
		}
	}

	if opts.DumpSymbols {
		printer := pp.New()
		printer.SetColoringEnabled(term.IsTerminal(int(os.Stderr.Fd())))
		printer.Fprintln(os.Stderr, program.Labels.Map())
	}

	glog.V(1).Infof(
		"%s: %d lines, %d words, %d labels",
		source, len(lines), len(program.Image), program.Labels.Len(),
	)

	if len(program.Errors) > 0 {
		for _, err := range program.Errors {
			reportError(source, lines, err)
		}

		return fmt.Errorf("%w: %d errors", errAssembly, len(program.Errors))
	}

	return nil
}

func go6461_asm() int {
	// glog goes to standard error unless told otherwise
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
	os.Exit(go6461_asm())
}
