package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/isoshare/internal/share/validate"
	"github.com/kolkov/isoshare/internal/share/value"
)

// errRejected is returned when at least one document is not shareable.
var errRejected = errors.New("some values are not shareable")

// checkCommand implements 'isoshare check'.
//
// Every YAML document in each named file (or stdin for "-" or no files) is
// converted to a value and run through the default validator. One line is
// printed per document.
//
// Example:
//
//	$ printf 'a: 1\n---\nb: !mutable [1]\n' | isoshare check
//	-#0: shareable
//	-#1: isoshare: value is not shareable: mutable list at b
func checkCommand(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "Print each value back as YAML")
	maxDepth := fs.Int("max-depth", validate.DefaultMaxDepth, "Deepest nesting accepted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}

	v := validate.New(validate.Options{MaxDepth: *maxDepth})
	rejected := false
	for _, name := range files {
		docs, err := readValues(name, stdin)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for i, doc := range docs {
			if err := v.Check(doc); err != nil {
				rejected = true
				fmt.Fprintf(stdout, "%s#%d: %v\n", name, i, err)
			} else {
				fmt.Fprintf(stdout, "%s#%d: shareable\n", name, i)
			}
			if *dump {
				out, err := yaml.Marshal(doc)
				if err != nil {
					return fmt.Errorf("%s#%d: %w", name, i, err)
				}
				fmt.Fprintf(stdout, "%s", out)
			}
		}
	}
	if rejected {
		return errRejected
	}
	return nil
}

func readValues(name string, stdin io.Reader) ([]value.Value, error) {
	if name == "-" {
		return value.DecodeAll(stdin)
	}
	f, err := os.Open(name) //nolint:gosec // User-specified input path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return value.DecodeAll(f)
}
