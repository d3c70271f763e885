// Command mpedit inspects MessagePack buffers as text and writes edited text
// back, keeping the original encoding of every value that was not changed.
//
// Usage:
//
//	mpedit decode [--pretty] [--hex] [file]
//	mpedit dump [--hex] [file]
//	mpedit inspect (--byte N | --text N) [--hex] [file]
//	mpedit rebuild --edited FILE [--out FILE] [--diff] [--history DB] [--hex] [file]
//	mpedit history --history DB [--show SEQ] NAME
//
// Input comes from the file argument or stdin. With --hex, input (and
// rebuild output) is hex text instead of raw bytes.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/pflag"

	"github.com/andreyvit/mpedit"
	"github.com/andreyvit/mpedit/history"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

type command struct {
	name    string
	summary string
	run     func(e *env, args []string) error
}

var commands = []*command{
	{"decode", "print the buffer as compact or formatted text", runDecode},
	{"dump", "print the node tree with ranges and wire formats", runDump},
	{"inspect", "show the node at a byte or formatted-text offset", runInspect},
	{"rebuild", "encode edited text against the original buffer", runRebuild},
	{"history", "list or show saved versions", runHistory},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("mpedit", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	verbose := global.BoolP("verbose", "v", false, "log debug messages to stderr")
	noColor := global.Bool("no-color", false, "disable highlighting")
	global.Usage = func() { usage(stderr, global) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *noColor {
		color.NoColor = true
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr, global)
		return 2
	}
	for _, cmd := range commands {
		if cmd.name != rest[0] {
			continue
		}
		err := cmd.run(e, rest[1:])
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "mpedit %s: %v\n", cmd.name, err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "mpedit: unknown command %q\n", rest[0])
	usage(stderr, global)
	return 2
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: mpedit [--verbose] [--no-color] <command> [flags] [file]")
	fmt.Fprintln(w, "\ncommands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w, "\nglobal flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

func newFlagSet(e *env, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("mpedit "+name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func loadGeneration(e *env, args []string, hexMode bool) (*mpedit.Generation, string, error) {
	data, name, err := readInput(args, e.stdin, hexMode)
	if err != nil {
		return nil, "", err
	}
	g, err := mpedit.NewGeneration(data)
	if err != nil {
		return nil, "", err
	}
	return g, name, nil
}

func runDecode(e *env, args []string) error {
	fs := newFlagSet(e, "decode")
	pretty := fs.BoolP("pretty", "p", false, "indent the output")
	hexMode := fs.BoolP("hex", "x", false, "input is hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	g, _, err := loadGeneration(e, fs.Args(), *hexMode)
	if err != nil {
		return err
	}
	text := g.Tree.Text
	if *pretty {
		text = g.Formatted
	}
	_, err = fmt.Fprintln(e.stdout, text)
	return err
}

func runDump(e *env, args []string) error {
	fs := newFlagSet(e, "dump")
	hexMode := fs.BoolP("hex", "x", false, "input is hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	g, _, err := loadGeneration(e, fs.Args(), *hexMode)
	if err != nil {
		return err
	}
	return mpedit.Dump(e.stdout, g.Root(), mpedit.DumpAll)
}

func runInspect(e *env, args []string) error {
	fs := newFlagSet(e, "inspect")
	byteOff := fs.IntP("byte", "b", -1, "byte offset into the buffer")
	textOff := fs.IntP("text", "t", -1, "offset into the formatted text")
	hexMode := fs.BoolP("hex", "x", false, "input is hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*byteOff < 0) == (*textOff < 0) {
		return errors.New("exactly one of --byte and --text is required")
	}
	g, _, err := loadGeneration(e, fs.Args(), *hexMode)
	if err != nil {
		return err
	}

	var n *mpedit.Node
	if *byteOff >= 0 {
		n = g.NodeAtByte(*byteOff)
	} else {
		n = g.NodeAtFormatted(*textOff)
	}
	if n == nil {
		return errors.New("no value at that offset")
	}

	fstart, fend := g.FormattedRange(n)
	w := e.stdout
	fmt.Fprintf(w, "path:   %s\n", n.Path)
	if n.Format != mpedit.FormatNone {
		fmt.Fprintf(w, "kind:   %s (%s)\n", n.Kind, n.Format)
	} else {
		fmt.Fprintf(w, "kind:   %s\n", n.Kind)
	}
	fmt.Fprintf(w, "bytes:  %d..%d\n", n.ByteStart, n.ByteEnd)
	fmt.Fprintf(w, "text:   %d..%d (formatted %d..%d)\n", n.TextStart, n.TextEnd, fstart, fend)
	fmt.Fprintf(w, "value:  %s\n\n", g.Tree.Text[n.TextStart:n.TextEnd])
	fmt.Fprint(w, hexDump(g.Data(), n.ByteStart, n.ByteEnd))
	fmt.Fprintln(w)
	_, err = fmt.Fprintln(w, highlight(g.Formatted, fstart, fend))
	return err
}

func runRebuild(e *env, args []string) error {
	fs := newFlagSet(e, "rebuild")
	editedPath := fs.StringP("edited", "e", "", "file with the edited text (required)")
	outPath := fs.StringP("out", "o", "", "output file (default stdout)")
	showDiff := fs.BoolP("diff", "d", false, "print a diff of the formatted text to stderr")
	historyPath := fs.String("history", "", "record the result in this history database")
	docName := fs.String("name", "", "document name for history (default: input file name)")
	hexMode := fs.BoolP("hex", "x", false, "input and output are hex text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *editedPath == "" {
		return errors.New("--edited is required")
	}
	edited, err := os.ReadFile(*editedPath)
	if err != nil {
		return err
	}
	data, name, err := readInput(fs.Args(), e.stdin, *hexMode)
	if err != nil {
		return err
	}
	if *docName != "" {
		name = *docName
	}

	opt := mpedit.Options{Name: name, Logger: e.logger}
	if *historyPath != "" {
		st, err := history.Open(*historyPath, history.Options{Logger: e.logger})
		if err != nil {
			return err
		}
		defer st.Close()
		opt.History = st
	}

	doc := mpedit.NewDocument(opt)
	before, err := doc.Load(data)
	if err != nil {
		return err
	}
	after, err := doc.Save(string(edited))
	if err != nil {
		return err
	}

	if *showDiff {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(before.Formatted, after.Formatted, false)
		fmt.Fprintln(e.stderr, dmp.DiffPrettyText(diffs))
	}
	return writeOutput(e.stdout, *outPath, after.Data(), *hexMode)
}

func runHistory(e *env, args []string) error {
	fs := newFlagSet(e, "history")
	historyPath := fs.String("history", "", "history database (required)")
	show := fs.Uint64("show", 0, "print the formatted text of this version")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *historyPath == "" || fs.NArg() != 1 {
		return errors.New("usage: mpedit history --history DB [--show SEQ] NAME")
	}
	name := fs.Arg(0)

	st, err := history.Open(*historyPath, history.Options{Logger: e.logger})
	if err != nil {
		return err
	}
	defer st.Close()

	if *show != 0 {
		data, err := st.Load(name, *show)
		if err != nil {
			return err
		}
		g, err := mpedit.NewGeneration(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.stdout, g.Formatted)
		return err
	}

	entries, err := st.Entries(name)
	if err != nil {
		return err
	}
	var buf strings.Builder
	for _, ent := range entries {
		fmt.Fprintf(&buf, "%4d  %s  %8d bytes  %016x\n", ent.Seq, ent.Time.Format("2006-01-02 15:04:05"), ent.Size, ent.Hash)
	}
	_, err = io.WriteString(e.stdout, buf.String())
	return err
}
