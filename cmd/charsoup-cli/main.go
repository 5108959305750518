// Command charsoup-cli is a standalone CLI over the charsoup detector,
// language catalog, and arbitration components, for scripting and
// local debugging without running charsoupd.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/agentx/charsoup/internal/cli"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	app := cli.New(version)
	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "detect":
		fs := flag.NewFlagSet("detect", flag.ExitOnError)
		modelPath := fs.String("model", "model.ldm1", "path to an LDM1 model file")
		text := fs.String("text", "", "text to classify (reads stdin if omitted)")
		fs.Parse(args)
		err = app.RunDetect(*modelPath, *text)
	case "langs":
		fs := flag.NewFlagSet("langs", flag.ExitOnError)
		modelPath := fs.String("model", "model.ldm1", "path to an LDM1 model file")
		query := fs.String("query", "", "fuzzy language tag search, e.g. \"ger\"")
		fs.Parse(args)
		err = app.RunLangs(*modelPath, *query)
	case "inspect":
		fs := flag.NewFlagSet("inspect", flag.ExitOnError)
		modelPath := fs.String("model", "model.ldm1", "path to an LDM1 model file")
		fs.Parse(args)
		err = app.RunInspect(*modelPath)
	case "arbitrate":
		fs := flag.NewFlagSet("arbitrate", flag.ExitOnError)
		modelPath := fs.String("model", "model.ldm1", "path to an LDM1 model file")
		candidates := fs.String("candidates", "", "path to a {key: decoded text} JSON file")
		defaultKey := fs.String("default", "", "candidate key to treat as the baseline decoding")
		fs.Parse(args)
		if *candidates == "" {
			err = fmt.Errorf("arbitrate: --candidates is required")
		} else {
			err = app.RunArbitrate(*modelPath, *candidates, *defaultKey)
		}
	case "version":
		fmt.Println(version)
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `charsoup-cli - language identification and encoding arbitration

Usage:
  charsoup-cli detect --model model.ldm1 [--text "..."]
  charsoup-cli langs --model model.ldm1 [--query ger]
  charsoup-cli inspect --model model.ldm1
  charsoup-cli arbitrate --model model.ldm1 --candidates candidates.json --default key
  charsoup-cli version`)
}
