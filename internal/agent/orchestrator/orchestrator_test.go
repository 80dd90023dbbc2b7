package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wally205/DSC2025/internal/agent/composer"
	"github.com/wally205/DSC2025/internal/agent/conversations"
	"github.com/wally205/DSC2025/internal/agent/model"
	errx "github.com/wally205/DSC2025/internal/core/error"
)

// ===== fakes =====

type fakeFetcher struct {
	mu        sync.Mutex
	snap      *model.WeatherSnapshot
	err       error
	calls     int
	locations []string
	order     *callOrder
}

func (f *fakeFetcher) Fetch(_ context.Context, location string) (*model.WeatherSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.locations = append(f.locations, location)
	f.mu.Unlock()
	if f.order != nil {
		f.order.record("weather")
	}
	if f.err != nil {
		return nil, f.err
	}
	snap := *f.snap
	snap.Location = location
	return &snap, nil
}

type fakeRetriever struct {
	mu      sync.Mutex
	docs    []*schema.Document
	err     error
	calls   int
	queries []string
	order   *callOrder
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string) ([]*schema.Document, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.order != nil {
		f.order.record("retrieval")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeComposer struct {
	reply  string
	err    error
	calls  int
	inputs []composer.Input
}

func (f *fakeComposer) Compose(_ context.Context, in composer.Input) (string, error) {
	f.calls++
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type callOrder struct {
	mu    sync.Mutex
	names []string
}

func (c *callOrder) record(name string) {
	c.mu.Lock()
	c.names = append(c.names, name)
	c.mu.Unlock()
}

// memoryRepo is an in-memory stand-in for the Redis-backed store.
type memoryRepo struct {
	mu       sync.Mutex
	messages map[string][]*schema.Message
	states   map[string]*model.ConversationState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		messages: make(map[string][]*schema.Message),
		states:   make(map[string]*model.ConversationState),
	}
}

func (r *memoryRepo) AddMessage(_ context.Context, id string, msg *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[id] = append(r.messages[id], msg)
	return nil
}

func (r *memoryRepo) LoadHistory(_ context.Context, id string) (*model.ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &model.ConversationHistory{ConversationID: id, Messages: r.messages[id]}, nil
}

func (r *memoryRepo) ClearHistory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *memoryRepo) GetMessageCount(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[id]), nil
}

func (r *memoryRepo) SaveState(_ context.Context, state *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *state
	r.states[state.ID] = &cp
	return nil
}

func (r *memoryRepo) LoadState(_ context.Context, id string) (*model.ConversationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[id]; ok {
		cp := *s
		return &cp, nil
	}
	return model.NewConversationState(id), nil
}

// ===== fixture =====

type fixture struct {
	fetcher   *fakeFetcher
	retriever *fakeRetriever
	composer  *fakeComposer
	repo      *memoryRepo
	orch      *Orchestrator
	state     *model.ConversationState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fetcher: &fakeFetcher{snap: &model.WeatherSnapshot{
			Temperature: 22,
			Humidity:    80,
			Condition:   "mây rải rác",
			RetrievedAt: time.Now(),
		}},
		retriever: &fakeRetriever{docs: []*schema.Document{
			{ID: "doc:1", Content: "tưới cà phê vào sáng sớm"},
		}},
		composer: &fakeComposer{reply: "đây là câu trả lời"},
		repo:     newMemoryRepo(),
	}
	manager := conversations.NewManager(f.repo, model.ConversationConfig{HistoryWindow: 5})
	f.orch = New(f.fetcher, f.retriever, f.composer, manager, 30*time.Minute)
	f.state = model.NewConversationState("conv-1")
	return f
}

func (f *fixture) run(t *testing.T, utterance string) *Result {
	t.Helper()
	result, err := f.orch.RunTurn(context.Background(), f.state, utterance)
	require.NoError(t, err)
	return result
}

// ===== tests =====

func TestUnknownIntentSkipsToolsButCompletes(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "xin chào nhé mọi người")

	assert.Equal(t, clarificationResponse, result.Reply)
	assert.Zero(t, f.fetcher.calls)
	assert.Zero(t, f.retriever.calls)
	assert.Zero(t, f.composer.calls)

	// the exchange is still recorded and the turn counter advances
	assert.Equal(t, 1, f.state.TurnIndex)
	n, _ := f.repo.GetMessageCount(context.Background(), "conv-1")
	assert.Equal(t, 2, n)
}

func TestEmptyUtterance(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "   ")

	assert.Equal(t, emptyInputResponse, result.Reply)
	assert.Equal(t, 1, f.state.TurnIndex)
}

func TestWeatherTurnUpdatesState(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")

	assert.Equal(t, "đây là câu trả lời", result.Reply)
	assert.False(t, result.Degraded)
	require.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, "Đà Lạt", f.fetcher.locations[0])
	assert.Zero(t, f.retriever.calls)

	assert.Equal(t, "Đà Lạt", f.state.LastLocation)
	require.NotNil(t, f.state.LastWeather)
	assert.Equal(t, f.state.LastLocation, f.state.LastWeather.Location,
		"stored location and snapshot location must agree")

	in := f.composer.inputs[0]
	require.NotNil(t, in.Weather)
	assert.Empty(t, in.Passages)
}

func TestWeatherTurnWithoutLocationAsksForOne(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "có mưa không vậy trời")

	assert.Equal(t, needLocationResponse, result.Reply)
	assert.Zero(t, f.fetcher.calls)
	assert.Equal(t, 1, f.state.TurnIndex)
}

func TestFollowupReusesFreshSnapshot(t *testing.T) {
	f := newFixture(t)
	f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")
	require.Equal(t, 1, f.fetcher.calls)

	result := f.run(t, "với thời tiết này thì nên làm gì với cây cà phê?")

	assert.Equal(t, 1, f.fetcher.calls, "fresh snapshot must be reused, not re-fetched")
	assert.Equal(t, 1, f.retriever.calls)
	assert.False(t, result.Degraded)
	assert.Equal(t, 2, f.state.TurnIndex)

	in := f.composer.inputs[1]
	require.NotNil(t, in.Weather)
	assert.Equal(t, "Đà Lạt", in.Weather.Location)
	require.NotNil(t, in.CropAnalysis)
	assert.Equal(t, "cà phê", in.CropAnalysis.Crop)
}

func TestFollowupRefetchesStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")
	require.Equal(t, 1, f.fetcher.calls)

	// age the stored snapshot past the freshness window
	f.state.LastWeather.RetrievedAt = time.Now().Add(-time.Hour)

	f.run(t, "với thời tiết này thì nên làm gì với cây cà phê?")
	assert.Equal(t, 2, f.fetcher.calls)
}

func TestSequentialOrderingForConditionedAdvice(t *testing.T) {
	f := newFixture(t)
	order := &callOrder{}
	f.fetcher.order = order
	f.retriever.order = order
	f.state.LastLocation = "Pleiku"

	f.run(t, "với thời tiết này thì có nên phun thuốc cho cà phê không?")

	require.Equal(t, []string{"weather", "retrieval"}, order.names,
		"conditioned advice must fetch weather before retrieving")
	assert.Contains(t, f.retriever.queries[0], "22.0°C",
		"retrieval query must carry the snapshot")
}

func TestWeatherOnlyProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errx.NewToolError("weather", errx.CodeProviderError, fmt.Errorf("boom"))

	result := f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")

	assert.Equal(t, weatherUnavailableResponse, result.Reply)
	assert.Zero(t, f.composer.calls)
	assert.Equal(t, 1, f.state.TurnIndex)
	// the explicitly named location is kept, the failed reading is not
	assert.Equal(t, "Đà Lạt", f.state.LastLocation)
	assert.Nil(t, f.state.LastWeather)
}

func TestWeatherOnlyUnknownLocation(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errx.NewToolError("weather", errx.CodeNotFound, fmt.Errorf("unknown"))

	result := f.run(t, "thời tiết ở sa pa hôm nay")
	assert.Equal(t, locationUnknownResponse, result.Reply)
}

func TestConditionedAdviceDegradesWhenWeatherFails(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errx.NewToolError("weather", errx.CodeTimeout, fmt.Errorf("slow"))
	f.state.LastLocation = "Pleiku"

	result := f.run(t, "với thời tiết này thì nên làm gì với cây cà phê?")

	assert.True(t, result.Degraded)
	assert.Equal(t, "đây là câu trả lời", result.Reply)
	require.Equal(t, 1, f.composer.calls)

	in := f.composer.inputs[0]
	assert.True(t, in.Degraded)
	assert.Contains(t, in.MissingSources, "weather")
	assert.Nil(t, in.Weather)
	assert.NotEmpty(t, in.Passages)
}

func TestAdviceIndexUnavailable(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = errx.NewToolError("retrieval", errx.CodeIndexUnavailable, fmt.Errorf("down"))

	result := f.run(t, "cách phòng bệnh gỉ sắt trên cây cà phê")

	assert.Equal(t, knowledgeUnavailableResponse, result.Reply)
	assert.Zero(t, f.composer.calls)
	assert.Equal(t, 1, f.state.TurnIndex)
}

func TestAdviceNoMatchAnswersDegraded(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = errx.NewToolError("retrieval", errx.CodeNoMatch, fmt.Errorf("empty"))

	result := f.run(t, "cách phòng bệnh gỉ sắt trên cây cà phê")

	assert.True(t, result.Degraded)
	require.Equal(t, 1, f.composer.calls)
	in := f.composer.inputs[0]
	assert.True(t, in.Degraded)
	assert.Contains(t, in.MissingSources, "retrieval")
	assert.Empty(t, in.Passages)
}

func TestConditionedAdviceBothSourcesFail(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errx.NewToolError("weather", errx.CodeProviderError, fmt.Errorf("boom"))
	f.retriever.err = errx.NewToolError("retrieval", errx.CodeIndexUnavailable, fmt.Errorf("down"))
	f.state.LastLocation = "Pleiku"

	result := f.run(t, "với thời tiết này thì nên làm gì với cây cà phê?")

	assert.Equal(t, allSourcesFailedResponse, result.Reply)
	assert.Zero(t, f.composer.calls)
	assert.Equal(t, 1, f.state.TurnIndex)
}

func TestIndependentTopicsRunBothTools(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "trời ở đà lạt hôm nay thế nào, và cách chăm sóc lúa mới gieo?")

	assert.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, 1, f.retriever.calls)
	assert.False(t, result.Degraded)

	in := f.composer.inputs[0]
	assert.NotNil(t, in.Weather)
	assert.NotEmpty(t, in.Passages)
}

func TestIndependentTopicsCarryLocationFromContext(t *testing.T) {
	f := newFixture(t)
	f.state.LastLocation = "Đà Lạt"

	result := f.run(t, "trời hôm nay thế nào, và cách chăm sóc lúa mới gieo?")

	require.Equal(t, 1, f.fetcher.calls, "carried location must drive the fetch")
	assert.Equal(t, "Đà Lạt", f.fetcher.locations[0])
	assert.False(t, result.Degraded)

	in := f.composer.inputs[0]
	assert.NotNil(t, in.Weather)
	assert.NotEmpty(t, in.Passages)
}

func TestFailedFetchForNewLocationDropsOldSnapshot(t *testing.T) {
	f := newFixture(t)
	f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")
	require.NotNil(t, f.state.LastWeather)

	f.fetcher.err = errx.NewToolError("weather", errx.CodeProviderError, fmt.Errorf("boom"))
	f.run(t, "thời tiết ở Hà Nội hôm nay thế nào?")

	assert.Equal(t, "Hà Nội", f.state.LastLocation)
	assert.Nil(t, f.state.LastWeather,
		"old city's reading must not be kept as context for the new one")

	// the next advice turn must not enrich its query with stale weather
	f.fetcher.err = nil
	f.run(t, "cách phòng bệnh gỉ sắt trên cây cà phê")
	in := f.composer.inputs[len(f.composer.inputs)-1]
	assert.Nil(t, in.Weather)
}

func TestIndependentTopicsPartialFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errx.NewToolError("weather", errx.CodeProviderError, fmt.Errorf("boom"))

	result := f.run(t, "trời ở đà lạt hôm nay thế nào, và cách chăm sóc lúa mới gieo?")

	assert.True(t, result.Degraded)
	require.Equal(t, 1, f.composer.calls)
	in := f.composer.inputs[0]
	assert.Contains(t, in.MissingSources, "weather")
	assert.NotEmpty(t, in.Passages)
}

func TestComposerFailureStillCompletesTurn(t *testing.T) {
	f := newFixture(t)
	f.composer.err = errx.NewToolError("composer", errx.CodeComposer, fmt.Errorf("llm down"))

	result := f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")

	assert.Equal(t, composerFailedResponse, result.Reply)
	assert.Equal(t, 1, f.state.TurnIndex)
	n, _ := f.repo.GetMessageCount(context.Background(), "conv-1")
	assert.Equal(t, 2, n, "the apology still lands in history")
}

func TestTraceRecordsWorkflowStates(t *testing.T) {
	f := newFixture(t)
	result := f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")

	assert.Equal(t, []State{
		StateClassifying, StateRouting, StateWeatherFetch, StateComposing, StateDone,
	}, result.Trace)
}

func TestHistoryWindowHandedToComposer(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 8; i++ {
		f.run(t, "thời tiết hôm nay ở Đà Lạt như thế nào?")
	}

	last := f.composer.inputs[len(f.composer.inputs)-1]
	assert.Len(t, last.History, 10, "history is capped at the configured window")
}
