package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/director/internal/agents"
	"github.com/xiaot623/gogo/director/internal/domain"
	"github.com/xiaot623/gogo/director/internal/registry"
)

const (
	scraperAddr  = "0x34D5a31c1b74ff7d2682743708a5C6Ac3CB30627"
	analysisAddr = "0x1734424505540188195351964754846154681093"
	seoAddr      = "0x2f7D95566BfAF09Ee5CA41765486181bdC827583"
)

type call struct {
	agent         string
	input         string
	correlationID string
}

type fakeInvoker struct {
	mu      sync.Mutex
	calls   []call
	fail    map[string]error
	outputs map[string]string
}

func (f *fakeInvoker) Invoke(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{agent: desc.Name, input: instruction, correlationID: correlationID})
	f.mu.Unlock()
	if err := f.fail[desc.Name]; err != nil {
		return nil, err
	}
	if out, ok := f.outputs[desc.Name]; ok {
		return &agents.Output{Text: out, Metadata: map[string]any{"agent": desc.Name}}, nil
	}
	return &agents.Output{Text: desc.Name + " output"}, nil
}

type recordingObserver struct {
	statuses []domain.StepStatus
}

func (r *recordingObserver) ObserveStep(agent string, status domain.StepStatus, d time.Duration) {
	r.statuses = append(r.statuses, status)
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]domain.AgentDescriptor{
		{ID: "id-scraper", Name: "web_scraper_agent", Address: scraperAddr, CostPerOutputToken: 0.000001},
		{ID: "id-analysis", Name: "content_analysis_agent", Address: analysisAddr, CostPerOutputToken: 0.000002},
		{ID: "id-seo", Name: "seo_optimization_agent", Address: seoAddr, CostPerOutputToken: 0.000003},
	})
	require.NoError(t, err)
	return reg
}

func step(name, address, prompt string, cost float64) domain.PlanStep {
	return domain.PlanStep{AgentName: name, AgentAddress: address, AgentPrompt: prompt, Cost: cost, Valid: true}
}

func TestRunThreadsContextAndShapesURL(t *testing.T) {
	inv := &fakeInvoker{outputs: map[string]string{"web_scraper_agent": "PAGE TEXT"}}
	obs := &recordingObserver{}
	exec := New(inv, WithStepDelay(0), WithObserver(obs))

	steps := []domain.PlanStep{
		step("web_scraper_agent", scraperAddr, "Scrape https://example.com.", 0.00026),
		step("content_analysis_agent", analysisAddr, "Summarise the page", 0.00036),
	}
	steps[0].AgentID = "id-scraper"

	results := exec.Run(context.Background(), testRegistry(t), steps)
	require.Len(t, results, 2)
	require.Len(t, inv.calls, 2)

	assert.Equal(t, "https://example.com", inv.calls[0].input)
	assert.Equal(t, "id-scraper", inv.calls[0].correlationID)
	assert.Equal(t, "Context: PAGE TEXT\nUser Prompt: Summarise the page", inv.calls[1].input)
	assert.Equal(t, analysisAddr, inv.calls[1].correlationID)

	assert.Equal(t, domain.StepStatusCompleted, results[0].Status)
	assert.Equal(t, "PAGE TEXT", results[0].Result)
	assert.Equal(t, "https://example.com", results[0].InputPrompt)
	assert.Equal(t, 0.00026, results[0].ExecutionCost)
	assert.Equal(t, "id-analysis", results[1].AgentID)
	assert.NotEmpty(t, results[1].Timestamp)
	assert.Equal(t, []domain.StepStatus{domain.StepStatusCompleted, domain.StepStatusCompleted}, obs.statuses)

	summary := Summarize(results)
	assert.Equal(t, domain.JobStatusCompleted, StatusOf(summary))
	assert.InDelta(t, 0.00062, summary.TotalCost, 1e-12)
}

func TestRunFirstStepSendsInstructionUnchanged(t *testing.T) {
	inv := &fakeInvoker{}
	results := New(inv, WithStepDelay(0)).Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("seo_optimization_agent", seoAddr, "Optimise example.com", 0.1),
	})
	require.Len(t, results, 1)
	assert.Equal(t, "Optimise example.com", inv.calls[0].input)
}

func TestRunContinuesPastFailures(t *testing.T) {
	inv := &fakeInvoker{fail: map[string]error{"content_analysis_agent": errors.New("backend down")}}
	exec := New(inv, WithStepDelay(0))

	results := exec.Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("web_scraper_agent", scraperAddr, "https://example.com/a", 1),
		step("content_analysis_agent", analysisAddr, "Analyse", 2),
		step("seo_optimization_agent", seoAddr, "Suggest SEO", 3),
	})

	require.Len(t, results, 3)
	assert.Equal(t, domain.StepStatusFailed, results[1].Status)
	assert.Equal(t, "backend down", results[1].Error)
	assert.Empty(t, results[1].Result)
	assert.Equal(t, domain.StepStatusCompleted, results[2].Status)
	assert.Equal(t, "Context: web_scraper_agent output\nUser Prompt: Suggest SEO", inv.calls[2].input)

	summary := Summarize(results)
	assert.Equal(t, domain.ExecutionSummary{TotalAgents: 3, SuccessfulAgents: 2, FailedAgents: 1, TotalCost: 6}, summary)
	assert.Equal(t, domain.JobStatusPartialFailure, StatusOf(summary))
}

func TestRunResetOnFailure(t *testing.T) {
	inv := &fakeInvoker{fail: map[string]error{"content_analysis_agent": errors.New("boom")}}
	New(inv, WithStepDelay(0), WithResetOnFailure(true)).Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("web_scraper_agent", scraperAddr, "https://example.com", 1),
		step("content_analysis_agent", analysisAddr, "Analyse", 1),
		step("seo_optimization_agent", seoAddr, "Suggest SEO", 1),
	})
	require.Len(t, inv.calls, 3)
	assert.Equal(t, "Suggest SEO", inv.calls[2].input)
}

func TestRunUnknownAgentFailsStep(t *testing.T) {
	inv := &fakeInvoker{}
	results := New(inv, WithStepDelay(0)).Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("ghost_agent", "0x0000000000000000000000000000000000000001", "boo", 0.5),
		step("seo_optimization_agent", seoAddr, "Suggest SEO", 1),
	})
	require.Len(t, results, 2)
	assert.Equal(t, domain.StepStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "not found")
	assert.Equal(t, 0.5, results[0].ExecutionCost)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, "Suggest SEO", inv.calls[0].input)
}

func TestRunScraperWithoutURLDegrades(t *testing.T) {
	inv := &fakeInvoker{}
	New(inv, WithStepDelay(0)).Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("web_scraper_agent", scraperAddr, "Scrape the company homepage", 1),
	})
	assert.Equal(t, "Scrape the company homepage", inv.calls[0].input)
}

func TestRunStepTimeout(t *testing.T) {
	slow := invokerFunc(func(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	results := New(slow, WithStepDelay(0), WithStepTimeout(20*time.Millisecond)).Run(context.Background(), testRegistry(t), []domain.PlanStep{
		step("seo_optimization_agent", seoAddr, "Suggest SEO", 1),
	})
	require.Len(t, results, 1)
	assert.Equal(t, domain.StepStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "timed out")
}

func TestRunCancelledContextFailsRemainingSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inv := invokerFunc(func(c context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error) {
		cancel()
		return &agents.Output{Text: "done"}, nil
	})

	started := time.Now()
	results := New(inv, WithStepDelay(time.Hour)).Run(ctx, testRegistry(t), []domain.PlanStep{
		step("web_scraper_agent", scraperAddr, "https://example.com", 1),
		step("seo_optimization_agent", seoAddr, "Suggest SEO", 1),
	})
	assert.Less(t, time.Since(started), time.Minute)
	require.Len(t, results, 2)
	assert.Equal(t, domain.StepStatusCompleted, results[0].Status)
	assert.Equal(t, domain.StepStatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "cancelled")
}

func TestRunEmpty(t *testing.T) {
	results := New(&fakeInvoker{}).Run(context.Background(), testRegistry(t), nil)
	assert.Empty(t, results)
	assert.Equal(t, domain.JobStatusCompleted, StatusOf(Summarize(results)))
}

type invokerFunc func(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error)

func (f invokerFunc) Invoke(ctx context.Context, desc domain.AgentDescriptor, instruction, correlationID string) (*agents.Output, error) {
	return f(ctx, desc, instruction, correlationID)
}
