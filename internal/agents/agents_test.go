package agents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/director/internal/adapter/agentclient"
	"github.com/xiaot623/gogo/director/internal/adapter/llm"
	"github.com/xiaot623/gogo/director/internal/domain"
	apperrors "github.com/xiaot623/gogo/director/internal/errors"
)

const articleHTML = `<!doctype html>
<html><head><title>Gopher News</title><script>var tracking = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Gophers ship a new release</h1>
<p>The gopher community released a new version today with faster builds and better tooling for everyone involved.</p>
<p>Maintainers thanked contributors from around the world for their reviews, bug reports and patches over the last cycle.</p>
<p>The next release is planned for the spring and will focus on generics performance and improved diagnostics.</p>
</article>
</body></html>`

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, articleHTML)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeAgent struct {
	text string
	err  error
}

func (f *fakeAgent) Invoke(ctx context.Context, instruction, correlationID string) (*Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Output{Text: f.text + ":" + instruction}, nil
}

func (f *fakeAgent) HealthCheck(ctx context.Context) error { return f.err }

func TestScraperAgentExtractsReadableText(t *testing.T) {
	srv := newPageServer(t)
	agent := NewScraperAgent(WithHTTPClient(srv.Client()))

	out, err := agent.Invoke(context.Background(), srv.URL+"/article", "agent-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Text, "TITLE: "))
	assert.Contains(t, out.Text, "-- CONTENT --")
	assert.Contains(t, out.Text, "gopher community released a new version")
	assert.NotContains(t, out.Text, "tracking")
	assert.Equal(t, false, out.Metadata["cleaned"])
	assert.Equal(t, http.StatusOK, out.Metadata["statusCode"])
}

func TestScraperAgentCleaner(t *testing.T) {
	srv := newPageServer(t)

	cleaner := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "EXTRACTED TEXT:") {
			return "", errors.New("unexpected prompt")
		}
		return "  clean summary  ", nil
	})
	out, err := NewScraperAgent(WithHTTPClient(srv.Client()), WithCleaner(cleaner)).
		Invoke(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "clean summary", out.Text)
	assert.Equal(t, true, out.Metadata["cleaned"])

	failing := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	out, err = NewScraperAgent(WithHTTPClient(srv.Client()), WithCleaner(failing)).
		Invoke(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Contains(t, out.Text, "-- CONTENT --")
}

func TestScraperAgentErrors(t *testing.T) {
	srv := newPageServer(t)
	agent := NewScraperAgent(WithHTTPClient(srv.Client()))

	_, err := agent.Invoke(context.Background(), "Scrape the gopher site please", "")
	assert.ErrorContains(t, err, "not a fetchable URL")

	_, err = agent.Invoke(context.Background(), srv.URL+"/missing", "")
	assert.ErrorContains(t, err, "status code 404")
}

func TestScraperAgentHealthCheck(t *testing.T) {
	srv := newPageServer(t)

	healthy := NewScraperAgent(WithHTTPClient(srv.Client()), WithHealthURL(srv.URL))
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	unhealthy := NewScraperAgent(WithHTTPClient(srv.Client()), WithHealthURL(srv.URL+"/missing"))
	assert.Error(t, unhealthy.HealthCheck(context.Background()))
}

func TestHTMLToTextFallback(t *testing.T) {
	text, title := htmlToText([]byte(articleHTML))
	assert.Equal(t, "Gopher News", title)
	assert.Contains(t, text, "Gophers ship a new release")
	assert.NotContains(t, text, "tracking")
}

func TestPromptAgent(t *testing.T) {
	desc := domain.AgentDescriptor{Name: "content_analysis_agent", Capability: domain.CapabilityContentAnalyzer}
	agent := NewPromptAgent(desc, llm.NewMockClient())

	out, err := agent.Invoke(context.Background(), "Summarise the release notes", "agent-1")
	require.NoError(t, err)
	assert.Contains(t, out.Text, "Summarise the release notes")
	assert.Equal(t, "CONTENT_ANALYZER", out.Metadata["capability"])

	_, err = agent.Invoke(context.Background(), "   ", "")
	assert.Error(t, err)

	assert.NoError(t, agent.HealthCheck(context.Background()))
}

func TestPromptAgentUnhealthyBackend(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "I cannot help", nil
	})
	agent := NewPromptAgent(domain.AgentDescriptor{Name: "x"}, gen)
	assert.Error(t, agent.HealthCheck(context.Background()))
}

func TestRolePromptFallsBackToGeneric(t *testing.T) {
	assert.Equal(t, RolePrompt(domain.CapabilityGeneric), RolePrompt(domain.Capability("UNKNOWN")))
	assert.NotEqual(t, RolePrompt(domain.CapabilityGeneric), RolePrompt(domain.CapabilitySEOOptimizer))
}

func TestDirectoryExplicitRegistrationWins(t *testing.T) {
	built := 0
	dir := NewDirectory(func(desc domain.AgentDescriptor) (Agent, error) {
		built++
		return &fakeAgent{text: "built"}, nil
	})
	dir.MustRegister("special", &fakeAgent{text: "explicit"})

	out, err := dir.Invoke(context.Background(), domain.AgentDescriptor{Name: "special"}, "go", "")
	require.NoError(t, err)
	assert.Equal(t, "explicit:go", out.Text)

	desc := domain.AgentDescriptor{Name: "other", Address: "0xabc"}
	for i := 0; i < 2; i++ {
		out, err = dir.Invoke(context.Background(), desc, "go", "")
		require.NoError(t, err)
		assert.Equal(t, "built:go", out.Text)
	}
	assert.Equal(t, 1, built)

	assert.Error(t, dir.Register("special", &fakeAgent{}))
	assert.Error(t, dir.Register("", &fakeAgent{}))
}

func TestDirectoryWrapsFailures(t *testing.T) {
	dir := NewDirectory(nil)
	dir.MustRegister("broken", &fakeAgent{err: errors.New("boom")})

	_, err := dir.Invoke(context.Background(), domain.AgentDescriptor{Name: "broken"}, "go", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAgentExecution))
	assert.Contains(t, err.Error(), "boom")

	_, err = dir.Invoke(context.Background(), domain.AgentDescriptor{Name: "ghost"}, "go", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAgentExecution))
	assert.Contains(t, err.Error(), "no handler registered")
}

type fakeInvoker struct {
	address string
	prompt  string
	id      string
}

func (f *fakeInvoker) Invoke(ctx context.Context, address, prompt, correlationID string) (*agentclient.Result, error) {
	f.address, f.prompt, f.id = address, prompt, correlationID
	return &agentclient.Result{Text: "remote", Metadata: map[string]any{"actualCost": 0.1}}, nil
}

func (f *fakeInvoker) Ping(ctx context.Context) error { return nil }

func TestFactory(t *testing.T) {
	scraper, err := NewFactory(FactoryConfig{Generator: llm.NewMockClient()})(domain.AgentDescriptor{Name: "web_scraper_agent"})
	require.NoError(t, err)
	assert.IsType(t, &ScraperAgent{}, scraper)

	prompt, err := NewFactory(FactoryConfig{Generator: llm.NewMockClient()})(domain.AgentDescriptor{Name: "seo_optimization_agent"})
	require.NoError(t, err)
	assert.IsType(t, &PromptAgent{}, prompt)

	_, err = NewFactory(FactoryConfig{})(domain.AgentDescriptor{Name: "seo_optimization_agent"})
	assert.Error(t, err)

	inv := &fakeInvoker{}
	remote, err := NewFactory(FactoryConfig{Remote: inv})(domain.AgentDescriptor{Name: "web_scraper_agent", Address: "0xAB"})
	require.NoError(t, err)
	out, err := remote.Invoke(context.Background(), "https://example.com", "id-1")
	require.NoError(t, err)
	assert.Equal(t, "remote", out.Text)
	assert.Equal(t, "0xAB", inv.address)
	assert.Equal(t, "id-1", inv.id)
	assert.NoError(t, remote.HealthCheck(context.Background()))
}

func TestFormatReportTruncatesOnRuneBoundary(t *testing.T) {
	content := strings.Repeat("a", maxContentChars-1) + "世界"
	report := formatReport("t", "", content)
	assert.True(t, utf8.ValidString(report))
	assert.Contains(t, report, "(content truncated)")
	assert.NotContains(t, report, "世")

	assert.Equal(t, "ab...", truncateText("ab世", 3))
}
