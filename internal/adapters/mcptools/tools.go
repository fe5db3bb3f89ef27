package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/priority"
)

// EvaluateTool handles the tcd_evaluate MCP tool.
type EvaluateTool struct {
	ev Evaluator
}

// NewEvaluateTool creates an EvaluateTool.
func NewEvaluateTool(ev Evaluator) *EvaluateTool {
	return &EvaluateTool{ev: ev}
}

// Definition returns the MCP tool definition for tcd_evaluate.
func (t *EvaluateTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Compute the Total Cost of Dysfunction of a team with its six cost components and multipliers."),
	}, evaluationOptions()...)
	return mcp.NewTool("tcd_evaluate", opts...)
}

// Handle processes the tcd_evaluate tool call.
func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := requestArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := t.ev.Evaluate(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation rejected: %v", err)), nil
	}

	res := ev.Result
	var sb strings.Builder
	sb.WriteString("## Total Cost of Dysfunction\n\n")
	fmt.Fprintf(&sb, "- **Total**: %s (%.1f%% of payroll)\n", money(res.Total), 100*res.Total/res.Sanitized.Payroll)
	fmt.Fprintf(&sb, "- **Nominal range**: %s to %s\n", money(res.NominalInterval.Lower), money(res.NominalInterval.Upper))
	if res.Capped {
		fmt.Fprintf(&sb, "- **Capped** at %s\n", money(res.Ceiling))
	}
	fmt.Fprintf(&sb, "- **Industry**: %s (matched: %t)\n", ev.Industry.Name, ev.IndustryMatched)

	sb.WriteString("\n### Components\n\n")
	c := res.Components
	for _, row := range []struct {
		name string
		v    float64
	}{
		{"Productivity", c.Productivity},
		{"Rework", c.Rework},
		{"Turnover", c.Turnover},
		{"Opportunity", c.Opportunity},
		{"Overhead", c.Overhead},
		{"Disengagement", c.Disengagement},
	} {
		fmt.Fprintf(&sb, "- %s: %s\n", row.name, money(row.v))
	}

	f := res.Factors
	sb.WriteString("\n### Multipliers\n\n")
	fmt.Fprintf(&sb, "- Business (4Cs): %.4f\n- Industry: %.2f\n- Team size: %.2f\n- Gaming: %.2f\n",
		f.Business, f.Industry, f.TeamSize, f.Gaming)
	fmt.Fprintf(&sb, "\n- **Engagement**: %.2f (%s)\n", res.Engagement.Score, res.Engagement.Category)
	fmt.Fprintf(&sb, "- **Weighted readiness**: %.4f\n", res.WeightedReadiness)
	for _, corr := range res.Corrections {
		fmt.Fprintf(&sb, "- Corrected %s from %g to %g\n", corr.Field, corr.Given, corr.Applied)
	}
	fmt.Fprintf(&sb, "\nFormula version %s\n", res.Version)
	return mcp.NewToolResultText(sb.String()), nil
}

// GamingTool handles the tcd_detect_gaming MCP tool.
type GamingTool struct {
	ev Evaluator
}

// NewGamingTool creates a GamingTool.
func NewGamingTool(ev Evaluator) *GamingTool {
	return &GamingTool{ev: ev}
}

// Definition returns the MCP tool definition for tcd_detect_gaming.
func (t *GamingTool) Definition() mcp.Tool {
	return mcp.NewTool("tcd_detect_gaming",
		mcp.WithDescription("Check driver scores for implausible gaps between correlated drivers and report the resulting penalty."),
		mcp.WithObject("drivers",
			mcp.Required(),
			mcp.Description("Scores 1-7 keyed by communication, trust, psych_safety, goal_clarity, coordination, tms, team_cognition"),
		),
	)
}

// Handle processes the tcd_detect_gaming tool call.
func (t *GamingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := driversArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := t.ev.DetectGaming(ctx, d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check rejected: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Gaming Check\n\n")
	fmt.Fprintf(&sb, "- **Flagged**: %t\n", rep.Flagged)
	fmt.Fprintf(&sb, "- **Anomaly score**: %.2f\n", rep.AnomalyScore)
	fmt.Fprintf(&sb, "- **Penalty multiplier**: %.2f\n\n", rep.Penalty)
	for _, p := range rep.Pairs {
		fmt.Fprintf(&sb, "- %s / %s: gap %.2f, tolerance %.1f, excess %.2f\n",
			p.First, p.Second, p.Difference, p.Tolerance, p.Excess)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ConfidenceTool handles the tcd_confidence_interval MCP tool.
type ConfidenceTool struct {
	ev Evaluator
}

// NewConfidenceTool creates a ConfidenceTool.
func NewConfidenceTool(ev Evaluator) *ConfidenceTool {
	return &ConfidenceTool{ev: ev}
}

// Definition returns the MCP tool definition for tcd_confidence_interval.
func (t *ConfidenceTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Estimate a 95% interval for the TCD by sampling the cost coefficients. The same seed gives the same interval."),
		mcp.WithNumber("samples",
			mcp.Description("Number of Monte Carlo trials (default: server setting)"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Random seed (default: server setting)"),
		),
	}, evaluationOptions()...)
	return mcp.NewTool("tcd_confidence_interval", opts...)
}

// Handle processes the tcd_confidence_interval tool call.
func (t *ConfidenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := requestArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	samples := 0
	if v, ok := numberArg(req, "samples"); ok {
		if v < 0 {
			return mcp.NewToolResultError("'samples' must not be negative"), nil
		}
		samples = int(v)
	}
	var seed *int64
	if v, ok := numberArg(req, "seed"); ok {
		s := int64(v)
		seed = &s
	}

	iv, err := t.ev.EstimateConfidence(ctx, r, samples, seed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("estimate rejected: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## TCD Confidence Interval\n\n")
	fmt.Fprintf(&sb, "- **%.0f%% interval**: %s to %s\n", 100*iv.Level, money(iv.Low), money(iv.High))
	fmt.Fprintf(&sb, "- **Mean**: %s\n", money(iv.Mean))
	fmt.Fprintf(&sb, "- **Point estimate**: %s\n", money(iv.Point))
	fmt.Fprintf(&sb, "- **Samples**: %d (seed %d)\n", iv.Samples, iv.Seed)
	return mcp.NewToolResultText(sb.String()), nil
}

// PrioritiesTool handles the tcd_priorities MCP tool.
type PrioritiesTool struct {
	ev Evaluator
}

// NewPrioritiesTool creates a PrioritiesTool.
func NewPrioritiesTool(ev Evaluator) *PrioritiesTool {
	return &PrioritiesTool{ev: ev}
}

// Definition returns the MCP tool definition for tcd_priorities.
func (t *PrioritiesTool) Definition() mcp.Tool {
	return mcp.NewTool("tcd_priorities",
		mcp.WithDescription("Rank the drivers by team performance impact and industry business value of closing their gap, and place each in a CRITICAL, HIGH, MEDIUM or LOW quadrant."),
		mcp.WithObject("drivers",
			mcp.Required(),
			mcp.Description("Scores 1-7 keyed by communication, trust, psych_safety, goal_clarity, coordination, tms, team_cognition"),
		),
		mcp.WithString("industry",
			mcp.Description("Industry name from tcd_industries (default: Manufacturing)"),
		),
	)
}

// Handle processes the tcd_priorities tool call.
func (t *PrioritiesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := driversArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := t.ev.Priorities(ctx, req.GetString("industry", ""), d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking rejected: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Driver Priorities\n\n")
	fmt.Fprintf(&sb, "- **Industry**: %s (matched: %t, weights: %s)\n", rep.Industry.Name, rep.IndustryMatched, rep.WeightSet)
	for _, q := range priority.Quadrants() {
		fmt.Fprintf(&sb, "- %s: %d\n", q, rep.Counts[q])
	}
	sb.WriteString("\n| Rank | Driver | Score | Team impact | Business value | Quadrant |\n|---|---|---|---|---|---|\n")
	for i, dr := range rep.Drivers {
		fmt.Fprintf(&sb, "| %d | %s | %.2f | %.2f | %.2f | %s |\n",
			i+1, dr.Label, dr.Score, dr.TeamImpact, dr.BusinessValue, dr.Quadrant)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// IndustriesTool handles the tcd_industries MCP tool.
type IndustriesTool struct {
	ev Evaluator
}

// NewIndustriesTool creates an IndustriesTool.
func NewIndustriesTool(ev Evaluator) *IndustriesTool {
	return &IndustriesTool{ev: ev}
}

// Definition returns the MCP tool definition for tcd_industries.
func (t *IndustriesTool) Definition() mcp.Tool {
	return mcp.NewTool("tcd_industries",
		mcp.WithDescription("List the industry profiles and their cost multipliers."),
	)
}

// Handle processes the tcd_industries tool call.
func (t *IndustriesTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("## Industries\n\n| Name | Industry factor | Turnover multiplier | NAICS |\n|---|---|---|---|\n")
	for _, p := range t.ev.Industries() {
		fmt.Fprintf(&sb, "| %s | %.2f | %.2f | %s |\n", p.Name, p.Phi, p.Rho, strings.Join(p.NAICS, ", "))
	}
	fmt.Fprintf(&sb, "\nUnknown names use the default profile. Formula version %s.\n", formula.FormulaVersion)
	return mcp.NewToolResultText(sb.String()), nil
}
