package doctor

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Report collects the results of one doctor run in check order.
type Report struct {
	Results []*CheckResult
	// Passed counts OK results, fixed ones included.
	Passed int
	Warned int
	Failed int
	// Fixed lists the names of checks repaired by --fix, in run order.
	Fixed []string
}

// Healthy reports whether no check ended in StatusError.
func (r *Report) Healthy() bool { return r.Failed == 0 }

func (r *Report) add(res *CheckResult) {
	r.Results = append(r.Results, res)
	if res.Fixed {
		r.Fixed = append(r.Fixed, res.Name)
	}
	switch res.Status {
	case StatusOK:
		r.Passed++
	case StatusWarning:
		r.Warned++
	case StatusError:
		r.Failed++
	}
}

// Summary returns the one-line tally, e.g. "3 passed, 1 fixed".
func (r *Report) Summary() string {
	var parts []string
	for _, c := range []struct {
		n    int
		noun string
	}{
		{r.Passed, "passed"},
		{r.Warned, "warnings"},
		{r.Failed, "failed"},
		{len(r.Fixed), "fixed"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.noun))
		}
	}
	if len(parts) == 0 {
		return "No checks ran."
	}
	return strings.Join(parts, ", ")
}

// Doctor runs registered health checks in registration order.
type Doctor struct {
	checks []Check
}

// Register adds a check to the doctor's check list.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every check, printing each result to w as it completes.
// With fix set, a fixable check that did not pass is repaired and run
// again; it counts as fixed only when the second run passes.
func (d *Doctor) Run(ctx *CheckContext, w io.Writer, fix bool) *Report {
	r := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)
		if fix && res.Status != StatusOK && c.CanFix() {
			res = repair(ctx, c, res)
		}
		printResult(w, res, ctx.Verbose)
		r.add(res)
	}
	return r
}

// repair applies c's fix and returns the re-run result, or the original
// result annotated with the reason the fix did not take.
func repair(ctx *CheckContext, c Check, before *CheckResult) *CheckResult {
	if err := c.Fix(ctx); err != nil {
		before.Details = append(before.Details, "fix failed: "+err.Error())
		return before
	}
	after := c.Run(ctx)
	if after.Status != StatusOK {
		after.Details = append(after.Details, "fix applied but the check still fails")
		return after
	}
	after.Fixed = true
	return after
}

var statusIcons = map[CheckStatus]func(string, ...any) string{
	StatusOK:      color.GreenString,
	StatusWarning: color.YellowString,
	StatusError:   color.RedString,
}

var statusGlyphs = map[CheckStatus]string{
	StatusOK:      "✓",
	StatusWarning: "⚠",
	StatusError:   "✗",
}

func printResult(w io.Writer, r *CheckResult, verbose bool) {
	icon := statusIcons[r.Status](statusGlyphs[r.Status])
	line := fmt.Sprintf("  %s %s: %s", icon, r.Name, r.Message)
	if r.Fixed {
		line += " (fixed)"
	}
	fmt.Fprintln(w, line) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK {
		fmt.Fprintf(w, "      %s %s\n", color.CyanString("hint:"), r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the report's tally to w after a blank line.
func PrintSummary(w io.Writer, r *Report) {
	fmt.Fprintf(w, "\n%s\n", r.Summary()) //nolint:errcheck // best-effort output
}
