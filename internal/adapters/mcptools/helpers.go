package mcptools

import (
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/formula"
)

var errBadArgument = errors.New("invalid argument")

// money formats an amount with two decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// numberArg extracts a number argument. JSON numbers arrive as float64.
func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

// optionalNumberArg returns nil when key is absent, so an explicit zero
// is kept.
func optionalNumberArg(req mcp.CallToolRequest, key string) *float64 {
	if v, ok := numberArg(req, key); ok {
		return &v
	}
	return nil
}

func driversArg(req mcp.CallToolRequest) (formula.DriverScores, error) {
	raw, ok := req.GetArguments()["drivers"].(map[string]any)
	if !ok {
		return formula.DriverScores{}, fmt.Errorf("%w: 'drivers' must be an object of driver scores", errBadArgument)
	}
	scores := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return formula.DriverScores{}, fmt.Errorf("%w: driver %q must be a number", errBadArgument, k)
		}
		scores[k] = f
	}
	return formula.ParseDriverScores(scores)
}

// requestArg builds a service request from the shared evaluation
// arguments.
func requestArg(req mcp.CallToolRequest) (service.Request, error) {
	d, err := driversArg(req)
	if err != nil {
		return service.Request{}, err
	}
	payroll, ok := numberArg(req, "payroll")
	if !ok {
		return service.Request{}, fmt.Errorf("%w: 'payroll' is required", errBadArgument)
	}
	size, ok := numberArg(req, "team_size")
	if !ok {
		return service.Request{}, fmt.Errorf("%w: 'team_size' is required", errBadArgument)
	}
	if size != math.Trunc(size) || size > math.MaxInt32 || size < math.MinInt32 {
		return service.Request{}, fmt.Errorf("%w: 'team_size' must be a whole number, got %g", errBadArgument, size)
	}
	out := service.Request{
		Drivers:  d,
		Payroll:  payroll,
		TeamSize: int(size),
		Industry: req.GetString("industry", ""),
	}
	out.IndustryFactor = optionalNumberArg(req, "industry_factor")
	out.TurnoverMultiplier = optionalNumberArg(req, "turnover_multiplier")
	out.BusinessValueRatio = optionalNumberArg(req, "business_value_ratio")
	out.Revenue, _ = numberArg(req, "revenue")
	return out, nil
}

// evaluationOptions are the arguments shared by tcd_evaluate and
// tcd_confidence_interval.
func evaluationOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithObject("drivers",
			mcp.Required(),
			mcp.Description("Scores 1-7 keyed by communication, trust, psych_safety, goal_clarity, coordination, tms, team_cognition"),
		),
		mcp.WithNumber("payroll",
			mcp.Required(),
			mcp.Description("Annual team payroll, greater than zero"),
		),
		mcp.WithNumber("team_size",
			mcp.Required(),
			mcp.Description("Number of team members, at least 1"),
		),
		mcp.WithString("industry",
			mcp.Description("Industry name from tcd_industries (default: Manufacturing)"),
		),
		mcp.WithNumber("industry_factor",
			mcp.Description("Overrides the industry multiplier, 0.7-1.4"),
		),
		mcp.WithNumber("turnover_multiplier",
			mcp.Description("Overrides the industry turnover multiplier, 0.8-1.3"),
		),
		mcp.WithNumber("business_value_ratio",
			mcp.Description("Revenue to payroll ratio, 1-10"),
		),
		mcp.WithNumber("revenue",
			mcp.Description("Annual revenue attributed to the team, used when business_value_ratio is absent"),
		),
	}
}
