package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// RateSeries maps an observation date, exactly as published, to its rate.
type RateSeries map[string]float64

// SeriesStatistics is the mean, high and low of a series.
// Empty is set when the series had no observations; the numbers are then zero.
type SeriesStatistics struct {
	Mean  float64
	High  float64
	Low   float64
	Empty bool
}

type CorrelationResult struct {
	USDCAD      SeriesStatistics
	CORRA       SeriesStatistics
	Coefficient float64
}

func NewCorrelationResult(usdcad, corra SeriesStatistics, coefficient float64) *CorrelationResult {
	return &CorrelationResult{
		USDCAD:      usdcad,
		CORRA:       corra,
		Coefficient: coefficient,
	}
}

// DateRange keeps the user supplied strings next to their parsed values.
// The strings are what gets forwarded upstream.
type DateRange struct {
	StartDate string
	EndDate   string
	Start     time.Time
	End       time.Time
}

// Number is a float64 that survives JSON encoding when it is not finite.
// NaN and the infinities are written as the strings "NaN", "Infinity" and "-Infinity".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "NaN":
			*n = Number(math.NaN())
		case "Infinity":
			*n = Number(math.Inf(1))
		case "-Infinity":
			*n = Number(math.Inf(-1))
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*n = Number(f)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// CorrelationView is the wire form of a CorrelationResult.
// An Empty series shows up with Avg, High and Low all 0.
type CorrelationView struct {
	USDCADAvg   Number `json:"USDCAD_Avg"`
	USDCADHigh  Number `json:"USDCAD_High"`
	USDCADLow   Number `json:"USDCAD_Low"`
	CORRAAvg    Number `json:"CORRA_Avg"`
	CORRAHigh   Number `json:"CORRA_High"`
	CORRALow    Number `json:"CORRA_Low"`
	Coefficient Number `json:"Coefficient"`
}

func (r *CorrelationResult) View() CorrelationView {
	return CorrelationView{
		USDCADAvg:   Number(r.USDCAD.Mean),
		USDCADHigh:  Number(r.USDCAD.High),
		USDCADLow:   Number(r.USDCAD.Low),
		CORRAAvg:    Number(r.CORRA.Mean),
		CORRAHigh:   Number(r.CORRA.High),
		CORRALow:    Number(r.CORRA.Low),
		Coefficient: Number(r.Coefficient),
	}
}
