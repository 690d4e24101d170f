package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
)

const observationsMarker = "OBSERVATIONS"

const maxLineSize = 1024 * 1024

type Parser struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}

	return &Parser{log: log}
}

// Parse reads a Valet observations CSV into a date to rate map.
// Everything up to the OBSERVATIONS line and the header row after it is skipped.
func (p *Parser) Parse(body []byte) (entities.RateSeries, error) {
	const op = "parser.Parse"

	series := entities.RateSeries{}

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	found := false
	for sc.Scan() {
		if strings.Contains(sc.Text(), observationsMarker) {
			found = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, parseErr(op, err)
	}
	if !found {
		p.log.Warn("observations marker not found", "bytes", len(body))
		return series, nil
	}

	// header
	sc.Scan()

	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		date, rate, err := parseRow(line)
		if err != nil {
			return nil, parseErr(op, err)
		}

		if _, ok := series[date]; ok {
			p.log.Warn("multiple rates on date", "date", date)
			continue
		}
		series[date] = rate
	}
	if err := sc.Err(); err != nil {
		return nil, parseErr(op, err)
	}

	return series, nil
}

func parseRow(line string) (string, float64, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("line %s: expected date and rate", line)
	}

	date := strings.Trim(strings.TrimSpace(fields[0]), `"`)
	raw := strings.Trim(strings.TrimSpace(fields[1]), `"`)

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("line %s: %w", line, err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "", 0, fmt.Errorf("line %s: rate is not finite", line)
	}

	return date, rate, nil
}

func parseErr(op string, err error) error {
	return errors.Wrap(fmt.Errorf("%w: %w", entities.ErrParse, err), op)
}
