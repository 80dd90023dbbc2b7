package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/sourcegraph/conc"

	"github.com/wally205/DSC2025/internal/agent/classify"
	"github.com/wally205/DSC2025/internal/agent/composer"
	"github.com/wally205/DSC2025/internal/agent/conversations"
	"github.com/wally205/DSC2025/internal/agent/model"
	"github.com/wally205/DSC2025/internal/agent/retrieval"
	"github.com/wally205/DSC2025/internal/agent/weather"
	errx "github.com/wally205/DSC2025/internal/core/error"
	logx "github.com/wally205/DSC2025/pkg/logger"
)

// State labels one step of the turn workflow.
type State string

const (
	StateClassifying  State = "CLASSIFYING"
	StateRouting      State = "ROUTING"
	StateWeatherFetch State = "WEATHER_FETCH"
	StateRetrieving   State = "RETRIEVING"
	StateComposing    State = "COMPOSING"
	StateRecovering   State = "ERROR_RECOVERY"
	StateDone         State = "DONE"
)

// Result is the outcome of one completed turn.
type Result struct {
	Reply    string
	Intent   model.Intent
	Degraded bool
	Trace    []State
}

// Orchestrator drives one turn through an explicit state machine:
// classify, route to the tools the intent needs, recover from tool
// failures, compose, then commit history and state in one step at the
// end. Conversation state is never mutated mid-turn; each turn stages a
// delta and applies it only once the reply is final.
type Orchestrator struct {
	fetcher   weather.Fetcher
	retriever retrieval.Retriever
	composer  composer.Composer
	manager   *conversations.Manager
	freshness time.Duration
	now       func() time.Time
}

func New(fetcher weather.Fetcher, retriever retrieval.Retriever, comp composer.Composer, manager *conversations.Manager, freshness time.Duration) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		retriever: retriever,
		composer:  comp,
		manager:   manager,
		freshness: freshness,
		now:       time.Now,
	}
}

// turn accumulates everything one pass through the machine produces.
type turn struct {
	conversationID string

	utterance string
	intent    model.Intent
	weather   *model.WeatherSnapshot
	passages  []*schema.Document
	delta     model.StateDelta
	degraded  bool
	missing   []string
	reply     string

	// traceMu guards trace during the concurrent fan-out path
	traceMu sync.Mutex
	trace   []State
}

func (t *turn) enter(s State) {
	t.traceMu.Lock()
	t.trace = append(t.trace, s)
	t.traceMu.Unlock()
}

// recoverOnce records the recovery state without duplicating it when two
// sources fail in the same turn.
func (t *turn) recoverOnce() {
	t.traceMu.Lock()
	if len(t.trace) == 0 || t.trace[len(t.trace)-1] != StateRecovering {
		t.trace = append(t.trace, StateRecovering)
	}
	t.traceMu.Unlock()
}

func (t *turn) degrade(source string) {
	t.degraded = true
	t.missing = append(t.missing, source)
}

// RunTurn processes one utterance for the given conversation state. The
// turn always completes: tool failures turn into degraded or canned
// replies, and the exchange is recorded either way. Only a storage
// failure surfaces as an error.
func (o *Orchestrator) RunTurn(ctx context.Context, state *model.ConversationState, utterance string) (*Result, error) {
	t := &turn{conversationID: state.ID, utterance: strings.TrimSpace(utterance)}

	if t.reply = o.classify(state, t); t.reply == "" {
		o.route(ctx, state, t)
	}

	t.enter(StateDone)
	state.Apply(t.delta)
	if err := o.manager.CommitTurn(ctx, state, utterance, t.reply); err != nil {
		return nil, fmt.Errorf("commit turn: %w", err)
	}

	logx.Info().
		Str("conversation_id", state.ID).
		Int("turn", state.TurnIndex).
		Str("intent", string(t.intent.Type)).
		Str("confidence", t.intent.ConfidenceLevel()).
		Bool("degraded", t.degraded).
		Msg("turn completed")

	return &Result{Reply: t.reply, Intent: t.intent, Degraded: t.degraded, Trace: t.trace}, nil
}

// classify runs the intent step. A non-empty return is a canned reply
// that short-circuits routing.
func (o *Orchestrator) classify(state *model.ConversationState, t *turn) string {
	t.enter(StateClassifying)
	if t.utterance == "" {
		return emptyInputResponse
	}

	t.intent = classify.Classify(t.utterance, state.Snapshot(o.freshness, o.now()))
	t.delta.Location = t.intent.Location
	t.delta.Crop = t.intent.Crop

	if t.intent.Type == model.IntentUnknown {
		return clarificationResponse
	}
	return ""
}

// route drives the tool states the intent calls for and leaves t.reply
// set when done.
func (o *Orchestrator) route(ctx context.Context, state *model.ConversationState, t *turn) {
	t.enter(StateRouting)

	switch t.intent.Type {
	case model.IntentWeather:
		o.runWeatherOnly(ctx, state, t)
	case model.IntentAdvice:
		o.runAdviceOnly(ctx, state, t)
	case model.IntentBoth:
		if t.intent.NeedsWeather {
			o.runWeatherThenRetrieve(ctx, state, t)
		} else {
			o.runConcurrent(ctx, state, t)
		}
	}
}

func (o *Orchestrator) runWeatherOnly(ctx context.Context, state *model.ConversationState, t *turn) {
	if !t.intent.HasLocation() {
		t.reply = needLocationResponse
		return
	}
	if err := o.fetchWeather(ctx, state, t); err != nil {
		t.enter(StateRecovering)
		t.reply = weatherFailureReply(err)
		return
	}
	o.compose(ctx, t)
}

func (o *Orchestrator) runAdviceOnly(ctx context.Context, state *model.ConversationState, t *turn) {
	// carried weather enriches the query but is not required here
	if snap := state.LastWeather; snap.Fresh(o.freshness, o.now()) {
		t.weather = snap
	}
	if err := o.retrieve(ctx, t, t.weather); err != nil {
		t.enter(StateRecovering)
		if errx.IsCode(err, errx.CodeNoMatch) {
			// answer from general knowledge with an explicit caveat
			t.degrade(retrieval.ToolName)
		} else {
			t.reply = knowledgeUnavailableResponse
			return
		}
	}
	o.compose(ctx, t)
}

// runWeatherThenRetrieve serves advice conditioned on current weather:
// the snapshot must exist before retrieval so the query carries it.
func (o *Orchestrator) runWeatherThenRetrieve(ctx context.Context, state *model.ConversationState, t *turn) {
	if !t.intent.HasLocation() {
		t.reply = needLocationResponse
		return
	}
	weatherErr := o.fetchWeather(ctx, state, t)
	if weatherErr != nil {
		t.recoverOnce()
		t.degrade(weather.ToolName)
	}
	retrieveErr := o.retrieve(ctx, t, t.weather)
	if retrieveErr != nil {
		t.recoverOnce()
		t.degrade(retrieval.ToolName)
	}
	if weatherErr != nil && retrieveErr != nil && !errx.IsCode(retrieveErr, errx.CodeNoMatch) {
		t.reply = allSourcesFailedResponse
		return
	}
	o.compose(ctx, t)
}

// runConcurrent serves independent weather and advice requests in one
// utterance; the two fetches share no data, so they fan out.
func (o *Orchestrator) runConcurrent(ctx context.Context, state *model.ConversationState, t *turn) {
	var weatherErr, retrieveErr error

	// the two requests are independent; retrieval enriches from carried
	// context only, never from the snapshot being fetched alongside it
	var carried *model.WeatherSnapshot
	if snap := state.LastWeather; snap.Fresh(o.freshness, o.now()) {
		carried = snap
	}

	var wg conc.WaitGroup
	if t.intent.HasLocation() {
		wg.Go(func() {
			weatherErr = o.fetchWeather(ctx, state, t)
		})
	} else {
		weatherErr = errx.NewToolError(weather.ToolName, errx.CodeNotFound,
			fmt.Errorf("no location slot"))
	}
	wg.Go(func() {
		retrieveErr = o.retrieve(ctx, t, carried)
	})
	wg.Wait()

	if weatherErr != nil || retrieveErr != nil {
		t.recoverOnce()
	}
	if weatherErr != nil {
		t.degrade(weather.ToolName)
	}
	if retrieveErr != nil {
		t.degrade(retrieval.ToolName)
	}
	if weatherErr != nil && retrieveErr != nil && !errx.IsCode(retrieveErr, errx.CodeNoMatch) {
		t.reply = allSourcesFailedResponse
		return
	}
	o.compose(ctx, t)
}

// fetchWeather fills t.weather, reusing the carried snapshot when it is
// fresh and covers the same location.
func (o *Orchestrator) fetchWeather(ctx context.Context, state *model.ConversationState, t *turn) error {
	if snap := state.LastWeather; snap.Fresh(o.freshness, o.now()) && snap.Location == t.intent.Location {
		logx.Debug().Str("location", snap.Location).Msg("reusing fresh weather snapshot")
		t.weather = snap
		return nil
	}

	t.enter(StateWeatherFetch)
	snap, err := o.fetcher.Fetch(ctx, t.intent.Location)
	if err != nil {
		logx.Warn().Err(err).Str("location", t.intent.Location).Msg("weather fetch failed")
		return err
	}
	t.weather = snap
	t.delta.Weather = snap
	return nil
}

func (o *Orchestrator) retrieve(ctx context.Context, t *turn, snap *model.WeatherSnapshot) error {
	t.enter(StateRetrieving)
	query := retrieval.EnrichQuery(t.utterance, t.intent.Crop, snap, t.intent.Keywords)
	docs, err := o.retriever.Retrieve(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Msg("retrieval failed")
		return err
	}
	t.passages = docs
	return nil
}

func (o *Orchestrator) compose(ctx context.Context, t *turn) {
	t.enter(StateComposing)

	var analysis *model.CropAnalysis
	if t.weather != nil && t.intent.HasCrop() {
		analysis = weather.AnalyzeForCrop(t.weather, t.intent.Crop)
	}

	history, err := o.manager.LoadWindow(ctx, t.conversationID)
	if err != nil {
		logx.Warn().Err(err).Msg("history load failed, composing without it")
		history = nil
	}

	reply, err := o.composer.Compose(ctx, composer.Input{
		Utterance:      t.utterance,
		Intent:         t.intent,
		Weather:        t.weather,
		CropAnalysis:   analysis,
		Passages:       t.passages,
		History:        history,
		Degraded:       t.degraded,
		MissingSources: t.missing,
	})
	if err != nil {
		logx.Error().Err(err).Msg("composition failed")
		t.enter(StateRecovering)
		t.reply = composerFailedResponse
		return
	}
	t.reply = reply
}

// weatherFailureReply maps a classified fetch failure to the canned reply
// for a weather-only turn.
func weatherFailureReply(err error) string {
	if errx.IsCode(err, errx.CodeNotFound) {
		return locationUnknownResponse
	}
	return weatherUnavailableResponse
}
