package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/notify"
	"github.com/Yates-Labs/talecraft/internal/story"
)

type fakeNotifier struct {
	mu        sync.Mutex
	contents  []string
	recipient []string
	result    notify.Result
}

func (f *fakeNotifier) Notify(ctx context.Context, content, recipientID string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, content)
	f.recipient = append(f.recipient, recipientID)
	return f.result
}

func assessmentJSON(total float64, improvements, highlights string) string {
	data, _ := json.Marshal(evaluation.Assessment{
		TotalScore: total,
		Breakdown: evaluation.Breakdown{
			CharacterAccuracy:     4,
			MotivationConsistency: 4,
			RoleAppropriateness:   4,
			RelationshipDepiction: 4,
			EmotionalAuthenticity: 4,
		},
		Evaluation:           "It read true to me.",
		Highlights:           highlights,
		Improvements:         improvements,
		CharacterVoice:       "Onward.",
		ImportanceAssessment: "Fair",
	})
	return string(data)
}

// scriptedLLM answers by schema: episodes in order, evaluations by persona name.
type scriptedLLM struct {
	*narrative.MockLLM
}

func newScriptedLLM(episodes []string, scores map[string]float64) *scriptedLLM {
	var mu sync.Mutex
	next := 0
	return &scriptedLLM{narrative.NewMockLLMFunc(func(req narrative.Request) (string, error) {
		switch req.Schema {
		case narrative.ContentSchema:
			mu.Lock()
			defer mu.Unlock()
			text := episodes[len(episodes)-1]
			if next < len(episodes) {
				text = episodes[next]
			}
			next++
			return narrative.ContentJSON(text), nil
		case narrative.SummarySchema:
			return narrative.SummaryJSON("Previously: the bridge fell."), nil
		case evaluation.AssessmentSchema:
			for name, score := range scores {
				if strings.HasPrefix(req.Messages[0].Content, "You are "+name+",") {
					improvements := ""
					if score < 4.0 {
						improvements = "Give " + name + " more agency"
					}
					return assessmentJSON(score, improvements, name+" shines"), nil
				}
			}
		}
		return "", errors.New("unexpected request")
	})}
}

func (s *scriptedLLM) count(schema *narrative.Schema) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Schema == schema {
			n++
		}
	}
	return n
}

func testRequest() Request {
	return Request{
		Story: story.StoryContext{Title: "T", Background: "B", Summary: "S"},
		Episode: story.EpisodeContext{
			Title:              "E1",
			ContinuityType:     story.ContinuityIndependent,
			AdditionalElements: "betrayal",
		},
		Characters: []story.CharacterProfile{
			{Name: "Ann", Age: "20", Description: "hero", IsProtagonist: true},
			{Name: "Bo", Age: "22"},
		},
		RecipientID: "user-1",
	}
}

func newTestPipeline(t *testing.T, llm narrative.LLM, n Notifier, threshold int) *Pipeline {
	t.Helper()
	gen := narrative.NewGenerator(llm, narrative.DefaultLLMConfig())
	p, err := NewPipeline(Components{
		Composer:   narrative.NewComposer("English"),
		Summarizer: narrative.NewSummarizer(gen, threshold),
		Generator:  gen,
		Evaluator:  evaluation.NewEngine(gen),
		Notifier:   n,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipeline_NoRevision(t *testing.T) {
	llm := newScriptedLLM([]string{"First draft."}, map[string]float64{"Ann": 4.0, "Bo": 4.6})
	n := &fakeNotifier{result: notify.Result{Success: true, MessageID: "m-1", Channel: notify.ChannelPush}}

	res, err := newTestPipeline(t, llm, n, 0).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if llm.count(narrative.ContentSchema) != 1 {
		t.Errorf("expected a single generation, got %d", llm.count(narrative.ContentSchema))
	}
	if res.Revised || res.Decision.NeedsRevision {
		t.Error("expected no revision")
	}
	if res.Content != "First draft." {
		t.Errorf("unexpected content %q", res.Content)
	}
	if len(res.Evaluations) != 2 || res.Evaluations[0].CharacterName != "Ann" || res.Evaluations[1].CharacterName != "Bo" {
		t.Errorf("unexpected evaluations: %+v", res.Evaluations)
	}
	if !res.Delivery.Success || res.Delivery.MessageID != "m-1" {
		t.Errorf("unexpected delivery: %+v", res.Delivery)
	}
	if len(n.contents) != 1 || n.contents[0] != "First draft." || n.recipient[0] != "user-1" {
		t.Errorf("unexpected notification: %v %v", n.contents, n.recipient)
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(res.Timings) != 4 {
		t.Errorf("expected 4 stage timings, got %d", len(res.Timings))
	}
}

func TestPipeline_SingleRevision(t *testing.T) {
	llm := newScriptedLLM([]string{"First draft.", "Revised draft."}, map[string]float64{"Ann": 3.0, "Bo": 4.7})
	n := &fakeNotifier{result: notify.Result{Success: true}}

	res, err := newTestPipeline(t, llm, n, 0).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := llm.count(narrative.ContentSchema); got != 2 {
		t.Errorf("expected generation plus one revision, got %d calls", got)
	}
	if got := llm.count(evaluation.AssessmentSchema); got != 2 {
		t.Errorf("revised content must not be re-evaluated, got %d evaluation calls", got)
	}
	if !res.Revised || res.Content != "Revised draft." {
		t.Errorf("expected revised content, got revised=%v content=%q", res.Revised, res.Content)
	}
	if res.Decision.MinScore != 3.0 {
		t.Errorf("expected min 3.0, got %v", res.Decision.MinScore)
	}
	if n.contents[0] != "Revised draft." {
		t.Errorf("expected revised content to be delivered, got %q", n.contents[0])
	}

	var revisionPrompt string
	for _, r := range llm.Requests() {
		if r.Schema == narrative.ContentSchema {
			revisionPrompt = r.Messages[0].Content
		}
	}
	for _, want := range []string{"First draft.", "Ann (score: 3.0): Give Ann more agency", "Bo (score: 4.7): Bo shines"} {
		if !strings.Contains(revisionPrompt, want) {
			t.Errorf("revision prompt missing %q", want)
		}
	}
}

func TestPipeline_EvaluationFailureStopsRun(t *testing.T) {
	llm := newScriptedLLM([]string{"First draft."}, map[string]float64{"Ann": 4.2})
	n := &fakeNotifier{}

	_, err := newTestPipeline(t, llm, n, 0).Run(context.Background(), testRequest())
	if !errors.Is(err, evaluation.ErrEvaluationFailed) {
		t.Fatalf("expected ErrEvaluationFailed, got %v", err)
	}
	if len(n.contents) != 0 {
		t.Error("notification must not be attempted after a failed run")
	}
}

func TestPipeline_GenerationSchemaFailure(t *testing.T) {
	llm := narrative.NewMockLLM(`{"content": ""}`)
	_, err := newTestPipeline(t, llm, &fakeNotifier{}, 0).Run(context.Background(), testRequest())
	if !errors.Is(err, narrative.ErrSchemaValidation) {
		t.Errorf("expected ErrSchemaValidation, got %v", err)
	}
}

func TestPipeline_MissingCharacters(t *testing.T) {
	req := testRequest()
	req.Characters = nil

	llm := newScriptedLLM([]string{"x"}, nil)
	_, err := newTestPipeline(t, llm, &fakeNotifier{}, 0).Run(context.Background(), req)
	if !errors.Is(err, ErrContractViolation) {
		t.Errorf("expected ErrContractViolation, got %v", err)
	}
	if len(llm.Requests()) != 0 {
		t.Error("no model call should happen on a contract violation")
	}
}

func TestPipeline_InvalidInput(t *testing.T) {
	req := testRequest()
	req.Story.Title = ""

	_, err := newTestPipeline(t, newScriptedLLM([]string{"x"}, nil), &fakeNotifier{}, 0).Run(context.Background(), req)
	if !errors.Is(err, story.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestPipeline_WithoutNotifier(t *testing.T) {
	llm := newScriptedLLM([]string{"Draft."}, map[string]float64{"Ann": 4.5, "Bo": 4.5})

	res, err := newTestPipeline(t, llm, nil, 0).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("delivery problems must not fail the run: %v", err)
	}
	if res.Delivery.Success || res.Delivery.Error == "" {
		t.Errorf("expected a reported delivery failure, got %+v", res.Delivery)
	}
}

func TestPipeline_SummarizesPreviousEpisode(t *testing.T) {
	long := strings.Repeat("The bridge creaked. ", 20)
	req := testRequest()
	req.Episode.PreviousEpisodeContent = long

	llm := newScriptedLLM([]string{"Draft."}, map[string]float64{"Ann": 4.5, "Bo": 4.5})
	if _, err := newTestPipeline(t, llm, &fakeNotifier{}, 100).Run(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := ""
	for _, r := range llm.Requests() {
		if r.Schema == narrative.ContentSchema {
			prompt = r.Messages[0].Content
			break
		}
	}
	if !strings.Contains(prompt, "Previously: the bridge fell.") {
		t.Error("expected the summary in the prompt")
	}
	if strings.Contains(prompt, long) {
		t.Error("the long previous episode should have been replaced")
	}
	if req.Episode.PreviousEpisodeContent != long {
		t.Error("the caller's episode must not be modified")
	}
}

func TestPipeline_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	llm := newScriptedLLM([]string{"Draft."}, map[string]float64{"Ann": 4.5, "Bo": 4.5})
	if _, err := newTestPipeline(t, llm, &fakeNotifier{}, 0).Run(context.Background(), testRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}
	for _, want := range []string{"pipeline.run", "pipeline.compose", "pipeline.generate", "pipeline.evaluate-and-revise", "pipeline.notify"} {
		if names[want] != 1 {
			t.Errorf("expected one %s span, got %d", want, names[want])
		}
	}
	if names["evaluation.character"] != 2 {
		t.Errorf("expected a span per character, got %d", names["evaluation.character"])
	}
}

type fakeStage struct {
	name   string
	in     Contract
	out    Contract
	ran    bool
	mutate func(Envelope) Envelope
}

func (f *fakeStage) Name() string     { return f.name }
func (f *fakeStage) Input() Contract  { return f.in }
func (f *fakeStage) Output() Contract { return f.out }
func (f *fakeStage) Run(ctx context.Context, env Envelope) (Envelope, error) {
	f.ran = true
	return f.mutate(env), nil
}

func TestRunStages_ContractViolation(t *testing.T) {
	tests := []struct {
		name      string
		first     *fakeStage
		wantField string
	}{
		{
			name: "output drops a declared field",
			first: &fakeStage{
				name: "lossy", out: Contract{FieldContent, FieldCharacters},
				mutate: func(e Envelope) Envelope { e.Characters = nil; return e },
			},
			wantField: "characters",
		},
		{
			name: "output satisfies itself but not the next input",
			first: &fakeStage{
				name: "blank", out: Contract{FieldCharacters},
				mutate: func(e Envelope) Envelope { e.Content = "  "; return e },
			},
			wantField: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &fakeStage{
				name: "consumer", in: Contract{FieldContent, FieldCharacters},
				mutate: func(e Envelope) Envelope { return e },
			}
			env := Envelope{Content: "text", Characters: []story.CharacterProfile{}}

			_, _, err := runStages(context.Background(), []Stage{tt.first, next}, env)
			if !errors.Is(err, ErrContractViolation) {
				t.Fatalf("expected ErrContractViolation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error to name %q, got %v", tt.wantField, err)
			}
			if next.ran {
				t.Error("the next stage must not run on a malformed envelope")
			}
		})
	}
}

func TestContract_EmptyCharactersArePresent(t *testing.T) {
	env := Envelope{Content: "x", Characters: []story.CharacterProfile{}}
	if err := (Contract{FieldContent, FieldCharacters}).Check(env); err != nil {
		t.Errorf("an empty cast should satisfy the contract: %v", err)
	}
}

func TestPipeline_Evaluate(t *testing.T) {
	llm := newScriptedLLM(nil, map[string]float64{"Ann": 3.0, "Bo": 4.7})
	evals, d, err := newTestPipeline(t, llm, nil, 0).Evaluate(context.Background(), "An episode.", testRequest().Characters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evals) != 2 || !d.NeedsRevision {
		t.Errorf("unexpected result: %d evaluations, needsRevision=%v", len(evals), d.NeedsRevision)
	}
	if llm.count(narrative.ContentSchema) != 0 {
		t.Error("evaluate must not generate content")
	}
}

func TestExportResult_JSON(t *testing.T) {
	llm := newScriptedLLM([]string{"First draft.", "Revised draft."}, map[string]float64{"Ann": 3.0, "Bo": 4.7})
	res, err := newTestPipeline(t, llm, &fakeNotifier{result: notify.Result{Success: true, Channel: notify.ChannelEmail, MessageID: "e-1"}}, 0).
		Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportResult(res, "JSON", &buf); err != nil {
		t.Fatalf("ExportResult failed: %v", err)
	}

	var export RunExport
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if export.RunID != res.RunID || !export.Revised || export.Content != "Revised draft." {
		t.Errorf("unexpected export: %+v", export)
	}
	if len(export.LowScoring) != 1 || export.LowScoring[0] != "Ann" {
		t.Errorf("unexpected low scoring list: %v", export.LowScoring)
	}
	if len(export.Evaluations) != 2 || export.Evaluations[1].CharacterName != "Bo" {
		t.Errorf("unexpected evaluations: %+v", export.Evaluations)
	}
	if export.Delivery.MessageID != "e-1" || len(export.Stages) != 4 {
		t.Errorf("unexpected delivery or stages: %+v %+v", export.Delivery, export.Stages)
	}
	if !strings.Contains(buf.String(), `"characterName": "Ann"`) {
		t.Error("evaluations should keep their wire field names")
	}
}

func TestExportResult_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := ExportResult(&Result{}, "xml", &buf)
	if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
		t.Errorf("Expected 'unsupported export format' error, got: %v", err)
	}
}
