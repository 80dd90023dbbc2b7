package model

import "time"

// ConversationState carries the per-conversation context reused across
// turns. It is owned by exactly one conversation and mutated only by the
// workflow at the end of a turn; turns of one conversation never
// interleave, so no locking happens here.
type ConversationState struct {
	ID           string
	TurnIndex    int
	LastLocation string
	LastCrop     string
	LastWeather  *WeatherSnapshot
}

// NewConversationState creates the state for a fresh conversation.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{ID: id}
}

// ContextSnapshot is the read-only view of carried context handed to the
// intent classifier.
type ContextSnapshot struct {
	LastLocation string
	LastCrop     string
	HasWeather   bool
}

// Snapshot builds the classifier view. freshness bounds whether the stored
// weather reading still counts as context.
func (s *ConversationState) Snapshot(freshness time.Duration, now time.Time) ContextSnapshot {
	return ContextSnapshot{
		LastLocation: s.LastLocation,
		LastCrop:     s.LastCrop,
		HasWeather:   s.LastWeather.Fresh(freshness, now),
	}
}

// StateDelta is the staged outcome of one turn. It is applied as a whole
// at turn completion, never field by field mid-flight.
type StateDelta struct {
	Location string
	Crop     string
	Weather  *WeatherSnapshot
}

// Apply commits a turn's delta and advances the turn counter. A snapshot
// always overrides the stored location so that LastLocation and
// LastWeather.Location agree whenever both are present.
func (s *ConversationState) Apply(d StateDelta) {
	if d.Location != "" {
		s.LastLocation = d.Location
	}
	if d.Crop != "" {
		s.LastCrop = d.Crop
	}
	if d.Weather != nil {
		s.LastWeather = d.Weather
		s.LastLocation = d.Weather.Location
	} else if s.LastWeather != nil && s.LastWeather.Location != s.LastLocation {
		// The location moved without a new reading; the old city's
		// snapshot must not survive as context for it.
		s.LastWeather = nil
	}
	s.TurnIndex++
}
