package agentctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/director/internal/registry"
	store "github.com/xiaot623/gogo/director/internal/repository"
)

func newOpener(t *testing.T) (Opener, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return func(ctx context.Context) (store.AgentStore, error) {
		return store.NewRedisAgentStore(ctx, "redis://"+mr.Addr()+"/0", nil)
	}, mr
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedDefaultCatalogue(t *testing.T) {
	open, mr := newOpener(t)
	require.NoError(t, mr.Set("AGENT_stale", `{"id":"stale","name":"old","address":"0x0000000000000000000000000000000000000001"}`))

	out, err := run(t, open, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 existing agents.")
	assert.Contains(t, out, "Seeded 7 agents.")
	assert.False(t, mr.Exists("AGENT_stale"))

	s, err := open(context.Background())
	require.NoError(t, err)
	defer s.Close()
	agents, err := s.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, len(registry.DefaultAgents()))
	for _, a := range agents {
		assert.NotEmpty(t, a.ID)
		assert.True(t, mr.Exists(store.AgentKey(a.ID)))
	}
}

func TestSeedFromFile(t *testing.T) {
	open, _ := newOpener(t)

	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`agents:
  - name: web_scraper_agent
    description: Specialises in scraping data from websites
    address: "0x34D5a31c1b74ff7d2682743708a5C6Ac3CB30627"
    costPerOutputToken: 0.000001
`), 0o644))

	out, err := run(t, open, "seed", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 agents.")

	out, err = run(t, open, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "web_scraper_agent")
	assert.Contains(t, out, "URL_FETCHER")
	assert.Contains(t, out, "$0.001000")
}

func TestSeedRejectsBadFile(t *testing.T) {
	open, mr := newOpener(t)
	require.NoError(t, mr.Set("AGENT_keep", `{"id":"keep","name":"keep","address":"0x0000000000000000000000000000000000000001"}`))

	path := filepath.Join(t.TempDir(), "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents:\n  - name: x\n    address: nope\n"), 0o644))

	_, err := run(t, open, "seed", "-f", path)
	require.Error(t, err)
	assert.True(t, mr.Exists("AGENT_keep"), "a rejected catalogue must not clear the store")
}

func TestListEmptyAndJSON(t *testing.T) {
	open, _ := newOpener(t)

	out, err := run(t, open, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No agents registered.")

	_, err = run(t, open, "seed")
	require.NoError(t, err)

	out, err = run(t, open, "list", "--json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, `"content_analysis_agent"`)
}

func TestClear(t *testing.T) {
	open, _ := newOpener(t)

	_, err := run(t, open, "seed")
	require.NoError(t, err)

	out, err := run(t, open, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 7 agents.")
}
