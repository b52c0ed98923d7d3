// Package evals checks how well a model picks Confluence tools and their
// arguments from natural language requests. Suites are YAML files; the
// model side is anything that implements ToolSelector.
package evals

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Case is a single request and the tool call it should produce
type Case struct {
	ID           string         `yaml:"id"`
	Category     string         `yaml:"category"`
	Input        string         `yaml:"input"`
	ExpectedTool string         `yaml:"expected_tool"`
	ExpectedArgs map[string]any `yaml:"expected_args,omitempty"`
	NotTools     []string       `yaml:"not_tools,omitempty"`
}

// ConfusionPair groups cases that separate two tools models tend to mix up
type ConfusionPair struct {
	ID             string   `yaml:"id"`
	Tools          []string `yaml:"tools"`
	Disambiguation string   `yaml:"disambiguation"`
	Cases          []Case   `yaml:"cases"`
}

// Suite is one eval file
type Suite struct {
	Name        string          `yaml:"name"`
	Version     string          `yaml:"version"`
	Description string          `yaml:"description"`
	Cases       []Case          `yaml:"cases"`
	Pairs       []ConfusionPair `yaml:"confusion_pairs"`
}

// Load reads a suite from a YAML file
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite %s: %w", path, err)
	}
	return &suite, nil
}

// AllCases returns the top-level cases followed by every confusion pair
// case. Pair cases without a category are filed under the pair ID.
func (s *Suite) AllCases() []Case {
	out := make([]Case, 0, len(s.Cases))
	out = append(out, s.Cases...)
	for _, p := range s.Pairs {
		for _, c := range p.Cases {
			if c.Category == "" {
				c.Category = p.ID
			}
			out = append(out, c)
		}
	}
	return out
}

// Check verifies the suite against the server's tool names: every case
// has an ID and input, IDs are unique, and every referenced tool exists.
func (s *Suite) Check(known []string) error {
	exists := make(map[string]bool, len(known))
	for _, name := range known {
		exists[name] = true
	}

	var errs []error
	seen := make(map[string]bool)
	for _, c := range s.AllCases() {
		if c.ID == "" || c.Input == "" {
			errs = append(errs, fmt.Errorf("case %q: id and input are required", c.ID))
		}
		if seen[c.ID] {
			errs = append(errs, fmt.Errorf("duplicate case id %q", c.ID))
		}
		seen[c.ID] = true

		if !exists[c.ExpectedTool] {
			errs = append(errs, fmt.Errorf("case %s: unknown tool %q", c.ID, c.ExpectedTool))
		}
		for _, t := range c.NotTools {
			if !exists[t] {
				errs = append(errs, fmt.Errorf("case %s: unknown not_tool %q", c.ID, t))
			}
		}
	}
	for _, p := range s.Pairs {
		for _, t := range p.Tools {
			if !exists[t] {
				errs = append(errs, fmt.Errorf("pair %s: unknown tool %q", p.ID, t))
			}
		}
	}
	return errors.Join(errs...)
}

// Coverage counts cases per expected tool. Tools in known with no case
// are present with a zero count.
func (s *Suite) Coverage(known []string) map[string]int {
	counts := make(map[string]int, len(known))
	for _, name := range known {
		counts[name] = 0
	}
	for _, c := range s.AllCases() {
		counts[c.ExpectedTool]++
	}
	return counts
}

// ToolSelector is implemented by an LLM harness or a mock
type ToolSelector interface {
	SelectTool(input string) (tool string, args map[string]any, err error)
}

// Result is the outcome of one case
type Result struct {
	Case       Case
	ActualTool string
	Passed     bool
	Errors     []string
}

// Report aggregates a run
type Report struct {
	Suite      string
	Total      int
	Passed     int
	ByCategory map[string]*Tally
	Results    []Result
}

// Tally counts passes within a category
type Tally struct {
	Total  int
	Passed int
}

// Accuracy is the share of passed cases, 0 for an empty run
func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total)
}

// Failures returns the failed results in run order
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Run evaluates every case in the suite against selector
func Run(suite *Suite, selector ToolSelector) *Report {
	report := &Report{
		Suite:      suite.Name,
		ByCategory: make(map[string]*Tally),
	}

	for _, c := range suite.AllCases() {
		res := evaluate(c, selector)

		tally := report.ByCategory[c.Category]
		if tally == nil {
			tally = &Tally{}
			report.ByCategory[c.Category] = tally
		}
		tally.Total++
		report.Total++
		if res.Passed {
			tally.Passed++
			report.Passed++
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func evaluate(c Case, selector ToolSelector) Result {
	tool, args, err := selector.SelectTool(c.Input)
	res := Result{Case: c, ActualTool: tool}

	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("selector error: %v", err))
	}
	if tool != c.ExpectedTool {
		res.Errors = append(res.Errors, fmt.Sprintf("wrong tool: expected %s, got %s", c.ExpectedTool, tool))
	}
	for _, forbidden := range c.NotTools {
		if tool == forbidden {
			res.Errors = append(res.Errors, fmt.Sprintf("selected forbidden tool %s", forbidden))
		}
	}

	keys := make([]string, 0, len(c.ExpectedArgs))
	for k := range c.ExpectedArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want := c.ExpectedArgs[k]
		got, ok := args[k]
		switch {
		case !ok:
			res.Errors = append(res.Errors, fmt.Sprintf("missing arg %s", k))
		case !sameValue(want, got):
			res.Errors = append(res.Errors, fmt.Sprintf("arg %s: expected %v, got %v", k, want, got))
		}
	}

	res.Passed = len(res.Errors) == 0
	return res
}

// sameValue compares values loosely: numbers by value regardless of type,
// so YAML ints match JSON float64s; everything else with DeepEqual.
func sameValue(want, got any) bool {
	if wf, ok := toFloat(want); ok {
		gf, ok := toFloat(got)
		return ok && wf == gf
	}
	if wv, gv := reflect.ValueOf(want), reflect.ValueOf(got); wv.Kind() == reflect.Slice && gv.Kind() == reflect.Slice {
		if wv.Len() != gv.Len() {
			return false
		}
		for i := 0; i < wv.Len(); i++ {
			if !sameValue(wv.Index(i).Interface(), gv.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(want, got)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// String renders a human-readable summary with up to ten failures
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n=== %s ===\n", r.Suite)
	fmt.Fprintf(&b, "Total: %d cases\n", r.Total)
	fmt.Fprintf(&b, "Passed: %d (%.1f%%)\n", r.Passed, r.Accuracy()*100)
	fmt.Fprintf(&b, "Failed: %d\n", r.Total-r.Passed)

	if len(r.ByCategory) > 0 {
		cats := make([]string, 0, len(r.ByCategory))
		for c := range r.ByCategory {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		b.WriteString("\nBy Category:\n")
		for _, c := range cats {
			t := r.ByCategory[c]
			fmt.Fprintf(&b, "  %-25s: %d/%d\n", c, t.Passed, t.Total)
		}
	}

	failures := r.Failures()
	if len(failures) > 0 {
		shown := failures
		if len(shown) > 10 {
			shown = shown[:10]
			fmt.Fprintf(&b, "\nFailed Cases (showing first 10 of %d):\n", len(failures))
		} else {
			b.WriteString("\nFailed Cases:\n")
		}
		for _, f := range shown {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", f.Case.ID, f.Case.Input, strings.Join(f.Errors, "; "))
		}
	}

	return b.String()
}
