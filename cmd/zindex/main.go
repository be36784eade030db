// Command zindex builds and queries random-access indexes over gzip- and
// zlib-compressed text files.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oarkflow/log"

	"github.com/oarkflow/zindex"
	"github.com/oarkflow/zindex/internal/extract"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "line":
		err = runLine(os.Args[2:])
	case "query":
		err = runQuery(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Str("err", err.Error()).Msg("zindex failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: zindex build|line|query ...")
}

type fieldSpecFlag []string

func (f *fieldSpecFlag) String() string { return strings.Join(*f, ",") }
func (f *fieldSpecFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	indexEvery := fs.Int64("index-every", 0, "bytes of uncompressed output between checkpoints")
	skipFirst := fs.Int64("skip-first", 0, "number of leading lines excluded from every index")
	var fieldSpecs fieldSpecFlag
	fs.Var(&fieldSpecs, "field-index", "name:separator:field, may be repeated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: zindex build [flags] <source> <index>")
	}
	source, index := fs.Arg(0), fs.Arg(1)

	var specs []zindex.IndexSpec
	for _, raw := range fieldSpecs {
		spec, err := parseFieldSpec(raw)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	cfg := &zindex.Config{
		IndexEvery: *indexEvery,
		SkipFirst:  *skipFirst,
		Indexes:    specs,
	}
	return zindex.Build(source, index, cfg)
}

func parseFieldSpec(raw string) (zindex.IndexSpec, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return zindex.IndexSpec{}, fmt.Errorf("invalid -field-index %q, want name:separator:field", raw)
	}
	name, sep, fieldStr := parts[0], parts[1], parts[2]
	field, err := strconv.Atoi(fieldStr)
	if err != nil || len(sep) != 1 {
		return zindex.IndexSpec{}, fmt.Errorf("invalid -field-index %q", raw)
	}
	return zindex.IndexSpec{
		Name:           name,
		CreationString: raw,
		Indexer:        &extract.FieldIndexer{Separator: sep[0], Field: field},
	}, nil
}

func runLine(args []string) error {
	fs := flag.NewFlagSet("line", flag.ExitOnError)
	force := fs.Bool("force", false, "open a stale index with a warning instead of failing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: zindex line [flags] <source> <index> <line>")
	}
	source, index := fs.Arg(0), fs.Arg(1)
	line, err := strconv.ParseInt(fs.Arg(2), 10, 64)
	if err != nil {
		return err
	}
	r, err := zindex.Open(source, index, *force)
	if err != nil {
		return err
	}
	defer r.Close()
	data, err := r.GetLine(line)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("line %d not found", line)
	}
	os.Stdout.Write(data)
	fmt.Println()
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	force := fs.Bool("force", false, "open a stale index with a warning instead of failing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return fmt.Errorf("usage: zindex query [flags] <source> <index> <index-name> <key>")
	}
	source, index, name, key := fs.Arg(0), fs.Arg(1), fs.Arg(2), fs.Arg(3)
	r, err := zindex.Open(source, index, *force)
	if err != nil {
		return err
	}
	defer r.Close()

	var keyValue any = key
	defs, err := r.IndexDefs()
	if err != nil {
		return err
	}
	for _, d := range defs {
		if d.Name == name && d.Numeric {
			n, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return fmt.Errorf("index %q expects a numeric key: %w", name, err)
			}
			keyValue = n
		}
	}

	lineNumbers, err := r.QueryIndex(name, keyValue)
	if err != nil {
		return err
	}
	lines, err := r.GetLines(lineNumbers)
	if err != nil {
		return err
	}
	for _, n := range lineNumbers {
		fmt.Printf("%d:%s\n", n, lines[n])
	}
	return nil
}
