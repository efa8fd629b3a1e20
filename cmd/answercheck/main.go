// Command answercheck compares one typed answer against the expected one
// and prints the annotated html.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mind-engage/answerset/internal/answerset"
	"github.com/mind-engage/answerset/internal/grading"
	"github.com/mind-engage/answerset/internal/profile"
)

const usage = "Usage: answercheck -correct <text> -given <text> [-options <yaml-file>] [-kind typein|strict|numeric] [-json]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns 0 for a correct or minor answer, 1 for a wrong one and 2 for
// usage or setup errors.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("answercheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	correct := fs.String("correct", "", "Expected answer")
	given := fs.String("given", "", "Typed answer")
	optionsFile := fs.String("options", "", "YAML option map (optional)")
	kind := fs.String("kind", grading.KindTypeIn, "Card kind: typein, strict or numeric")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	maxChoices := fs.Int("max-choices", answerset.DefaultMaxChoices, "Compare as one line above this many choices")
	maxUnits := fs.Int("max-units", answerset.DefaultMaxUnits, "Compare coarsely above this many characters")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *correct == "" {
		fmt.Fprintln(stderr, "Error: -correct required")
		fmt.Fprintln(stderr, usage)
		return 2
	}

	p := profile.Profile{Name: profile.DefaultName}
	if *optionsFile != "" {
		f, err := os.Open(*optionsFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot read options: %v\n", err)
			return 2
		}
		raw, err := profile.LoadYAML(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		p.Raw = raw
	}

	grader, err := grading.NewDefaultGrader()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	res, err := grader.Grade(context.Background(), grading.Card{
		Kind:    *kind,
		Correct: *correct,
		Points:  1,
		Options: p.Options(profile.Limits{MaxChoices: *maxChoices, MaxUnits: *maxUnits}),
	}, *given)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if res.NeedsManual {
		fmt.Fprintf(stderr, "Error: unknown kind %q\n", *kind)
		return 2
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		fmt.Fprintln(stdout, res.HTML)
		for _, fb := range res.Feedback {
			fmt.Fprintln(stderr, fb)
		}
	}
	if res.Correct || res.Minor {
		return 0
	}
	return 1
}
