// mailtriage-check validates a rule definition file without touching
// Gmail or the local store. Intended for CI and pre-commit hooks.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshsymonds/mailtriage/internal/rules"
)

func main() {
	rulesPath := flag.String("rules", "rules.json", "path to rule definitions")
	flag.Parse()

	if err := run(*rulesPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string) error {
	set, rejected, err := rules.LoadFile(path)
	if err != nil {
		return err
	}
	for _, rej := range rejected {
		fmt.Fprintf(os.Stderr, "rejected: %s\n", rej)
	}
	fmt.Printf("%s: %d rule(s) ok, %d rejected\n", path, len(set), len(rejected))
	if len(rejected) > 0 {
		return fmt.Errorf("%d rule definition(s) rejected", len(rejected))
	}
	return nil
}
