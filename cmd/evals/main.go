// Command evals validates the MCP tool selection suites against the
// server's tool definitions and reports their coverage.
//
// Usage:
//
//	go run ./cmd/evals -suite ./evals/confluence.yaml -verbose
//
// Scoring a model needs an evals.ToolSelector backed by an LLM; this
// command only checks that the suite and the tool set agree.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/olgasafonova/confluence-mcp-server/evals"
	"github.com/olgasafonova/confluence-mcp-server/tools"
)

func main() {
	path := flag.String("suite", "./evals/confluence.yaml", "Eval suite YAML file")
	verbose := flag.Bool("verbose", false, "Show every case")
	flag.Parse()

	suite, err := evals.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading suite: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(tools.AllTools))
	for _, spec := range tools.AllTools {
		names = append(names, spec.Name)
	}

	fmt.Println("Confluence MCP Server - Evaluation Suite")
	fmt.Println("=======================================")
	fmt.Printf("Suite: %s (version %s)\n", suite.Name, suite.Version)
	fmt.Printf("Cases: %d (%d in %d confusion pairs)\n\n",
		len(suite.AllCases()), len(suite.AllCases())-len(suite.Cases), len(suite.Pairs))

	coverage := suite.Coverage(names)
	covered := make([]string, 0, len(coverage))
	for name := range coverage {
		covered = append(covered, name)
	}
	sort.Strings(covered)

	fmt.Println("Cases by Tool:")
	for _, name := range covered {
		marker := ""
		if coverage[name] == 0 {
			marker = "  (no cases)"
		}
		fmt.Printf("  %-32s: %d%s\n", name, coverage[name], marker)
	}
	fmt.Println()

	if *verbose {
		for _, p := range suite.Pairs {
			fmt.Printf("%s %v\n  %s\n", p.ID, p.Tools, p.Disambiguation)
		}
		fmt.Println()
		for _, c := range suite.AllCases() {
			fmt.Printf("  [%s] %s\n    → %s %v\n", c.ID, c.Input, c.ExpectedTool, c.ExpectedArgs)
		}
		fmt.Println()
	}

	if err := suite.Check(names); err != nil {
		fmt.Fprintf(os.Stderr, "Suite check failed:\n%v\n", err)
		os.Exit(1)
	}
	fmt.Println("Suite check passed.")
}
