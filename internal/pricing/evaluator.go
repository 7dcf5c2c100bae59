package pricing

import (
	"math"

	"bricksync/internal/model"
)

// QualifyPercentOff is the minimum rounded percent-off for a deal.
const QualifyPercentOff = 10

// Evaluate classifies an observation. It returns the deal and true when the
// observation qualifies: percent-off at or above the threshold and in stock.
// Pure function, no I/O.
func Evaluate(obs model.PriceObservation) (model.Deal, bool) {
	if obs.RefPrice <= 0 {
		return model.Deal{}, false
	}
	percentOff := int(math.Round((obs.RefPrice - obs.Price) / obs.RefPrice * 100))
	if percentOff < QualifyPercentOff || !obs.InStock {
		return model.Deal{}, false
	}
	return model.Deal{
		PriceObservation: obs,
		PercentOff:       percentOff,
		Savings:          Round2(obs.RefPrice - obs.Price),
		LastUpdated:      obs.ObservedAt,
	}, true
}
