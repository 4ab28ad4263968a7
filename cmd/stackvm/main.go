// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command stackvm assembles and runs stack machine listings.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/stackvm/emulator"
	"github.com/ezrec/stackvm/translate"
)

var f = translate.From

var (
	ErrFormat = errors.New(f("unknown output format"))
	ErrDefine = errors.New(f("define must be NAME=VALUE"))
	ErrFailed = errors.New(f("one or more programs failed"))
)

var formats = []string{"text", "json", "yaml"}

// options are the command line settings.
type options struct {
	Debug   bool
	Verbose bool
	Defines []string
	Format  string
}

// result of running a single listing.
type result struct {
	File   string `json:"file" yaml:"file"`
	Top    int64  `json:"top" yaml:"top"`
	Output string `json:"output" yaml:"output"`
	Stdout string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "stackvm [flags] FILE...",
		Short: "Assemble and run stack machine listings",
		Long: `Assemble and run stack machine listings.

Each FILE is assembled and run on its own machine; '-' reads the listing
from standard input. Several files run in parallel, and their results are
reported in argument order.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(formats, opts.Format) {
				return errors.Join(ErrFormat, fmt.Errorf("%q", opts.Format))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "trace execution")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log assembler actions")
	cmd.Flags().StringArrayVarP(&opts.Defines, "define", "D", nil, "predefine an equate, as NAME=VALUE")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	return cmd
}

// parseDefines splits NAME=VALUE pairs.
func parseDefines(defines []string) (pairs [][2]string, err error) {
	for _, define := range defines {
		name, value, ok := strings.Cut(define, "=")
		if !ok || len(name) == 0 || len(value) == 0 {
			err = errors.Join(ErrDefine, fmt.Errorf("%q", define))
			return
		}
		pairs = append(pairs, [2]string{name, value})
	}

	return
}

// openFile returns the listing for a file argument.
func openFile(cmd *cobra.Command, file string) (io.ReadCloser, error) {
	if file == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(file)
}

// runFile assembles and runs one listing. Assembly and runtime faults are
// recorded in the result; only a failure to read the listing is returned.
func runFile(cmd *cobra.Command, opts *options, defines [][2]string, file string, stdout io.Writer) (res *result, err error) {
	res = &result{File: file}

	inf, err := openFile(cmd, file)
	if err != nil {
		return
	}
	defer inf.Close()

	emu := emulator.NewEmulator()
	emu.Verbose = opts.Verbose
	emu.Debug = opts.Debug
	emu.Stdout = stdout
	emu.Logger = log.New(cmd.ErrOrStderr(), file+": ", log.Default().Flags()|log.Lmsgprefix)
	for _, pair := range defines {
		emu.Define(pair[0], pair[1])
	}

	res.err = emu.Load(inf)
	if res.err == nil {
		var top int64
		top, res.Output, res.err = runEmulator(emu)
		res.Top = top
	}
	if res.err != nil {
		res.Error = res.err.Error()
	}

	return
}

func runEmulator(emu *emulator.Emulator) (top int64, output string, err error) {
	item, output, err := emu.Run()
	top = int64(item)
	return
}

func runFiles(cmd *cobra.Command, opts *options, files []string) (err error) {
	defines, err := parseDefines(opts.Defines)
	if err != nil {
		return
	}

	// PRINT goes straight through only when there is nothing to interleave with.
	direct := len(files) == 1 && opts.Format == "text"

	results := make([]*result, len(files))
	buffers := make([]bytes.Buffer, len(files))

	var g errgroup.Group
	for n, file := range files {
		g.Go(func() (err error) {
			var stdout io.Writer = &buffers[n]
			if direct {
				stdout = cmd.OutOrStdout()
			}
			results[n], err = runFile(cmd, opts, defines, file, stdout)
			return
		})
	}

	err = g.Wait()
	if err != nil {
		return
	}

	for n, res := range results {
		res.Stdout = buffers[n].String()
	}

	err = report(cmd, opts.Format, results)
	if err != nil {
		return
	}

	for _, res := range results {
		if res.err != nil {
			err = ErrFailed
			return
		}
	}

	return
}

// report writes the results in the requested format.
func report(cmd *cobra.Command, format string, results []*result) (err error) {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(results)
		if err == nil {
			err = enc.Close()
		}
	default:
		for _, res := range results {
			if len(results) > 1 {
				fmt.Fprintf(out, "==> %v <==\n", res.File)
			}
			fmt.Fprint(out, res.Stdout)
			if res.err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v: %v\n", res.File, res.err)
				continue
			}
			fmt.Fprint(out, res.Output)
			if len(res.Output) != 0 && !strings.HasSuffix(res.Output, "\n") {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "top: %d\n", res.Top)
		}
	}

	return
}

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", cmd.Name(), err)
		os.Exit(1)
	}
}
