// Package registry holds immutable snapshots of the agent catalogue.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xiaot623/gogo/director/internal/domain"
)

// Registry is an immutable snapshot of agent descriptors.
// It is safe for concurrent use.
type Registry struct {
	agents    []domain.AgentDescriptor
	byName    map[string]int
	byAddress map[string]int
}

// New builds a registry from descriptors. Names must be unique and costs
// non-negative. Capabilities missing from a descriptor are resolved here,
// once, from the well-known agent names.
func New(descriptors []domain.AgentDescriptor) (*Registry, error) {
	r := &Registry{
		agents:    make([]domain.AgentDescriptor, 0, len(descriptors)),
		byName:    make(map[string]int, len(descriptors)),
		byAddress: make(map[string]int, len(descriptors)),
	}

	sorted := make([]domain.AgentDescriptor, len(descriptors))
	copy(sorted, descriptors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, d := range sorted {
		if d.Name == "" {
			return nil, fmt.Errorf("agent %q has no name", d.ID)
		}
		if d.CostPerOutputToken < 0 {
			return nil, fmt.Errorf("agent %s has negative cost %v", d.Name, d.CostPerOutputToken)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate agent name %s", d.Name)
		}
		key := addressKey(d.Address)
		if key == "" {
			return nil, fmt.Errorf("agent %s has no address", d.Name)
		}
		if _, dup := r.byAddress[key]; dup {
			return nil, fmt.Errorf("duplicate agent address %s", d.Address)
		}
		d.Capability = ResolveCapability(d)

		r.byName[d.Name] = len(r.agents)
		r.byAddress[key] = len(r.agents)
		r.agents = append(r.agents, d)
	}
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(descriptors []domain.AgentDescriptor) *Registry {
	r, err := New(descriptors)
	if err != nil {
		panic(err)
	}
	return r
}

// ListAll returns every descriptor ordered by name. The result is empty,
// not nil, for an unprovisioned registry.
func (r *Registry) ListAll() []domain.AgentDescriptor {
	if r == nil {
		return []domain.AgentDescriptor{}
	}
	out := make([]domain.AgentDescriptor, len(r.agents))
	copy(out, r.agents)
	return out
}

// Len returns the number of agents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.agents)
}

// FindByAddress looks an agent up by settlement address, ignoring case.
func (r *Registry) FindByAddress(address string) (domain.AgentDescriptor, bool) {
	if r == nil {
		return domain.AgentDescriptor{}, false
	}
	i, ok := r.byAddress[addressKey(address)]
	if !ok {
		return domain.AgentDescriptor{}, false
	}
	return r.agents[i], true
}

// FindByName looks an agent up by its invocation name.
func (r *Registry) FindByName(name string) (domain.AgentDescriptor, bool) {
	if r == nil {
		return domain.AgentDescriptor{}, false
	}
	i, ok := r.byName[name]
	if !ok {
		return domain.AgentDescriptor{}, false
	}
	return r.agents[i], true
}

// ValidAddress reports whether address is a well-formed settlement address.
func ValidAddress(address string) bool {
	return common.IsHexAddress(strings.TrimSpace(address))
}

// addressKey normalises an address for case-insensitive lookup. Hex
// addresses are normalised through their checksum form so a missing 0x
// prefix still matches.
func addressKey(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

var wellKnown = map[string]domain.Capability{
	"web_scraper_agent":         domain.CapabilityURLFetcher,
	"seo_optimization_agent":    domain.CapabilitySEOOptimizer,
	"github_code_agent":         domain.CapabilityCodePublisher,
	"reddit_sentiment_agent":    domain.CapabilitySentimentAnalyzer,
	"farcaster_sentiment_agent": domain.CapabilitySentimentAnalyzer,
	"image_generation_agent":    domain.CapabilityImageGenerator,
	"content_analysis_agent":    domain.CapabilityContentAnalyzer,
}

// ResolveCapability returns d's declared capability, or the capability of
// its well-known name, or GENERIC.
func ResolveCapability(d domain.AgentDescriptor) domain.Capability {
	if d.Capability.Valid() {
		return d.Capability
	}
	if c, ok := domain.ParseCapability(string(d.Capability)); ok {
		return c
	}
	if c, ok := wellKnown[d.Name]; ok {
		return c
	}
	return domain.CapabilityGeneric
}
