package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/formula"
)

var errNoInput = errors.New("an input file is required (-f, or - for stdin)")

// inputFile is the YAML document read by evaluate, gaming and confidence.
// Drivers are keyed by name; comm_quality is accepted for communication.
type inputFile struct {
	Team               string             `yaml:"team"`
	Drivers            map[string]float64 `yaml:"drivers"`
	Payroll            float64            `yaml:"payroll"`
	TeamSize           int                `yaml:"team_size"`
	Industry           string             `yaml:"industry"`
	IndustryFactor     *float64           `yaml:"industry_factor"`
	TurnoverMultiplier *float64           `yaml:"turnover_multiplier"`
	BusinessValueRatio *float64           `yaml:"business_value_ratio"`
	Revenue            float64            `yaml:"revenue"`
}

func readInput(path string, stdin io.Reader) (inputFile, error) {
	var r io.Reader
	switch path {
	case "":
		return inputFile{}, errNoInput
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return inputFile{}, err
		}
		defer f.Close()
		r = f
	}

	var in inputFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return inputFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return in, nil
}

func (in *inputFile) drivers() (formula.DriverScores, error) {
	return formula.ParseDriverScores(in.Drivers)
}

func (in *inputFile) request() (service.Request, error) {
	d, err := in.drivers()
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{
		Team:               in.Team,
		Drivers:            d,
		Payroll:            in.Payroll,
		TeamSize:           in.TeamSize,
		Industry:           in.Industry,
		IndustryFactor:     in.IndustryFactor,
		TurnoverMultiplier: in.TurnoverMultiplier,
		BusinessValueRatio: in.BusinessValueRatio,
		Revenue:            in.Revenue,
	}, nil
}
