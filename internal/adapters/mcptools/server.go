// Package mcptools exposes the TCD operations as MCP tools.
//
// Each tool follows the same shape: a struct holding its dependencies, a
// Definition returning the tool schema and a Handle processing the call.
// Invalid input is reported as a tool error result, never as a Go error.
package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
)

// Name is the MCP server name.
const Name = "tcd"

// Evaluator is the part of the service the tools call.
type Evaluator interface {
	Evaluate(ctx context.Context, req service.Request) (service.Evaluation, error)
	DetectGaming(ctx context.Context, d formula.DriverScores) (formula.GamingReport, error)
	EstimateConfidence(ctx context.Context, req service.Request, samples int, seed *int64) (confidence.Interval, error)
	Priorities(ctx context.Context, industryName string, d formula.DriverScores) (service.PriorityReport, error)
	Industries() []industry.Profile
}

// New builds an MCP server with every TCD tool registered.
func New(ev Evaluator) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		formula.FormulaVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	evaluate := NewEvaluateTool(ev)
	s.AddTool(evaluate.Definition(), evaluate.Handle)

	gaming := NewGamingTool(ev)
	s.AddTool(gaming.Definition(), gaming.Handle)

	conf := NewConfidenceTool(ev)
	s.AddTool(conf.Definition(), conf.Handle)

	priorities := NewPrioritiesTool(ev)
	s.AddTool(priorities.Definition(), priorities.Handle)

	industries := NewIndustriesTool(ev)
	s.AddTool(industries.Definition(), industries.Handle)

	return s
}

const instructions = `Estimates the annual Total Cost of Dysfunction (TCD) of a team.
Drivers are scored 1 (worst) to 7 (best): communication, trust, psych_safety,
goal_clarity, coordination, tms, team_cognition. Use tcd_industries to pick an
industry name, tcd_evaluate for the point estimate, tcd_confidence_interval for
a seeded 95% interval, tcd_detect_gaming to check survey consistency and
tcd_priorities to rank which drivers to fix first.`
