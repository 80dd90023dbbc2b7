package model

// IntentType tags the classified purpose of a user utterance.
type IntentType string

const (
	IntentWeather IntentType = "weather"
	IntentAdvice  IntentType = "agriculture_advice"
	IntentBoth    IntentType = "both"
	IntentUnknown IntentType = "unknown"
)

// Confidence thresholds, matching the classifier's scoring scale.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.5
	LowConfidence    = 0.3
)

// Intent is the classifier output for one turn. Location and Crop are
// slots extracted from the utterance or resolved from carried context;
// either may be empty and downstream code must tolerate that.
type Intent struct {
	Type       IntentType
	Confidence float64
	Location   string
	Crop       string
	// NeedsWeather is set when the utterance conditions agronomy advice on
	// current weather ("với thời tiết này..."), which forces the
	// fetch-then-retrieve ordering.
	NeedsWeather bool
	Keywords     []string
	Reasoning    string
}

// HasLocation reports whether a location slot was resolved.
func (i Intent) HasLocation() bool { return i.Location != "" }

// HasCrop reports whether a crop slot was resolved.
func (i Intent) HasCrop() bool { return i.Crop != "" }

// ConfidenceLevel buckets the confidence score for logging.
func (i Intent) ConfidenceLevel() string {
	switch {
	case i.Confidence >= HighConfidence:
		return "high"
	case i.Confidence >= MediumConfidence:
		return "medium"
	default:
		return "low"
	}
}
