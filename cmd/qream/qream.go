package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/asmfmt"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/qream/qream"
	"github.com/qream/qream/harness"
	"github.com/qream/qream/internal/version"
	"github.com/qream/qream/ir"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, args []string) int {
	cmd := newRootCommand(stdOut, stdErr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stdErr, err)
		return 1
	}
	return 0
}

func newRootCommand(stdOut, stdErr io.Writer) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "qream",
		Short:         "Translates IR operations to ARM64 machine code",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdOut)
	root.SetErr(stdErr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each encoded operation to stderr")

	config := func() *qream.Config {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(stdErr, &slog.HandlerOptions{Level: level}))
		return qream.NewConfig().WithLogger(logger)
	}

	root.AddCommand(
		newDemoCommand(stdOut, config),
		newRunCommand(stdOut, config),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(*cobra.Command, []string) {
				fmt.Fprintln(stdOut, version.GetQreamVersion())
			},
		},
	)
	return root
}

func newDemoCommand(stdOut io.Writer, config func() *qream.Config) *cobra.Command {
	var program, format string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Translate a built-in program and print it",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ops, err := lookupProgram(program)
			if err != nil {
				return err
			}
			switch format {
			case "text":
				for i := range ops {
					fmt.Fprintf(stdOut, "%#x: %s\n", ops[i].Address, ops[i].String())
				}
				return nil
			case "hex", "goasm":
			default:
				return fmt.Errorf("invalid format %q: must be text, hex or goasm", format)
			}

			tr, err := qream.Translate(config(), ops)
			if err != nil {
				return err
			}
			if format == "hex" {
				printHex(stdOut, tr)
				return nil
			}
			return printGoAssembly(stdOut, program, tr)
		},
	}
	cmd.Flags().StringVarP(&program, "program", "p", "arithmetic", "built-in program: "+strings.Join(programNames(), ", "))
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, hex or goasm")
	return cmd
}

func newRunCommand(stdOut io.Writer, config func() *qream.Config) *cobra.Command {
	var program string
	var x1, x2 uint64
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Translate a built-in program and call it with x1 and x2",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ops, err := lookupProgram(program)
			if err != nil {
				return err
			}
			tr, err := qream.Translate(config(), ops)
			if err != nil {
				return err
			}
			exe, err := tr.Load()
			if err != nil {
				return err
			}
			defer exe.Close()

			regs := harness.Registers{1: x1, 2: x2}
			if err = exe.Call(&regs); err != nil {
				return err
			}
			for i, v := range regs {
				fmt.Fprintf(stdOut, "x%d\t%#x\t%d\n", i, v, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&program, "program", "p", "arithmetic", "built-in program: "+strings.Join(programNames(), ", "))
	cmd.Flags().Uint64Var(&x1, "x1", 10, "initial value of x1")
	cmd.Flags().Uint64Var(&x2, "x2", 3, "initial value of x2")
	return cmd
}

func lookupProgram(name string) ([]ir.Operation, error) {
	p, ok := programs[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q: must be one of %s", name, strings.Join(programNames(), ", "))
	}
	return p(), nil
}

// printHex prints one instruction word, then one literal, per line with its guest address.
func printHex(w io.Writer, tr *qream.Translation) {
	for i, word := range lo.Chunk(tr.Code, 4) {
		fmt.Fprintf(w, "%#x: %08x\n", tr.EntryPoint+uint64(4*i), binary.LittleEndian.Uint32(word))
	}
	base := tr.EntryPoint + uint64(tr.LiteralsOffset)
	for i, lit := range lo.Chunk(tr.Literals, 8) {
		var word [8]byte
		copy(word[:], lit)
		fmt.Fprintf(w, "%#x: %016x\n", base+uint64(8*i), binary.LittleEndian.Uint64(word[:]))
	}
}

// printGoAssembly prints the code as a Go assembly function of WORD directives.
func printGoAssembly(w io.Writer, name string, tr *qream.Translation) error {
	if len(tr.Literals) > 0 {
		return fmt.Errorf("program %s loads literals which a Go assembly listing cannot place", name)
	}
	var builder strings.Builder
	builder.WriteString("#include \"textflag.h\"\n\n")
	fmt.Fprintf(&builder, "TEXT ·%s(SB), NOSPLIT, $0-0\n", name)
	for _, word := range lo.Chunk(tr.Code, 4) {
		fmt.Fprintf(&builder, "\tWORD $0x%08x\n", binary.LittleEndian.Uint32(word))
	}
	builder.WriteString("\tRET\n")

	bytes, err := asmfmt.Format(strings.NewReader(builder.String()))
	if err != nil {
		return err
	}
	_, err = w.Write(bytes)
	return err
}
