package pipeline

import (
	"fmt"
	"math"
)

// RiskStatus is the traffic-light classification of a customer.
type RiskStatus string

const (
	RedLight    RiskStatus = "RED LIGHT"
	GreenYellow RiskStatus = "GREEN/YELLOW"
)

// DefaultRiskThreshold is the probability above which a customer is RED LIGHT.
const DefaultRiskThreshold = 0.75

// Prediction is one scored customer row.
type Prediction struct {
	CustomerID  string     `json:"customer_id"`
	Probability float64    `json:"churn_probability"`
	Status      RiskStatus `json:"churn_risk_status"`
}

// Classify labels each row by comparing its raw probability to threshold.
// The stored probability is rounded to three decimals.
func Classify(ids []string, probs []float64, threshold float64) ([]Prediction, error) {
	if len(ids) != len(probs) {
		return nil, fmt.Errorf("classify: %d ids but %d probabilities", len(ids), len(probs))
	}
	out := make([]Prediction, len(ids))
	for i, p := range probs {
		status := GreenYellow
		if p > threshold {
			status = RedLight
		}
		out[i] = Prediction{CustomerID: ids[i], Probability: math.Round(p*1000) / 1000, Status: status}
	}
	return out, nil
}

// RedLightOnly keeps the RED LIGHT rows in their original order.
func RedLightOnly(preds []Prediction) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if p.Status == RedLight {
			out = append(out, p)
		}
	}
	return out
}
