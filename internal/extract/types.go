// Package extract resolves free-text item descriptions into a canonical
// {unit, quantity, confidence} triple through a cached, bounded-concurrency
// call to a text-extraction model.
package extract

// UnknownUnit is the sentinel used when no unit can be determined.
const UnknownUnit = "Desconhecido"

// UnitExtraction is the classifier's answer for one raw item description.
// A failed extraction is represented as a nil unit, nil quantity and zero
// confidence; it is cached like any other answer so the description is not
// retried on later runs.
type UnitExtraction struct {
	Unit       *string  `json:"unit"`
	Quantity   *float64 `json:"quantity"`
	Confidence float64  `json:"confidence"`
}

// UnitOrUnknown reads the unit, mapping nil or empty to the sentinel.
func (e UnitExtraction) UnitOrUnknown() string {
	if e.Unit == nil || *e.Unit == "" {
		return UnknownUnit
	}
	return *e.Unit
}

// Placeholder is the zero-confidence entry recorded when extraction fails.
func Placeholder() UnitExtraction {
	return UnitExtraction{Unit: nil, Quantity: nil, Confidence: 0.0}
}
