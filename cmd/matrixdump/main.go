// Command matrixdump prints the matrix frame the firmware would show for a
// reading, given either in seconds or as a tick interval.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tachomatrix/glyph"
	"tachomatrix/tach"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fatalf("%v", err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("matrixdump", flag.ContinueOnError)
	var (
		mode  = fs.String("mode", "literal", "literal|direct.")
		ticks = fs.Bool("ticks", false, "Arguments are tick intervals, not seconds.")
		hz    = fs.Uint("hz", tach.DefaultHz, "Counter rate for -ticks.")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: matrixdump [-mode literal|direct] [-ticks [-hz 32768]] value...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no values")
	}
	m, err := glyph.ParseMode(*mode)
	if err != nil {
		return err
	}

	for i, arg := range fs.Args() {
		v, err := parseValue(arg, *ticks, uint32(*hz))
		if err != nil {
			return err
		}
		var f glyph.Frame
		d, err := glyph.Encode(&f, v, m)
		if err != nil && !errors.Is(err, glyph.ErrDigitRange) {
			return fmt.Errorf("%s: %w", arg, err)
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		note := ""
		if err != nil {
			note = "  (over range)"
		}
		fmt.Fprintf(out, "%s -> %s %s%s\n", arg, d, f.Hex(), note)
		fmt.Fprintln(out, indent(f.String()))
	}
	return nil
}

func parseValue(arg string, ticks bool, hz uint32) (float64, error) {
	if ticks {
		n, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("ticks %q: %w", arg, err)
		}
		return tach.Seconds(uint32(n), hz), nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("seconds %q: %w", arg, err)
	}
	return v, nil
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
