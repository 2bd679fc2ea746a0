package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/gogo/director/internal/domain"
)

// Catalogue is the on-disk format of an agent catalogue file.
type Catalogue struct {
	Agents []domain.AgentDescriptor `yaml:"agents"`
}

// DefaultAgents returns the built-in catalogue. IDs are left empty and
// assigned when the catalogue is provisioned.
func DefaultAgents() []domain.AgentDescriptor {
	return []domain.AgentDescriptor{
		{
			Name:               "web_scraper_agent",
			Description:        "Specialises in scraping data from websites",
			Address:            "0x34D5a31c1b74ff7d2682743708a5C6Ac3CB30627",
			CostPerOutputToken: 0.000001,
			Capability:         domain.CapabilityURLFetcher,
		},
		{
			Name:               "seo_optimization_agent",
			Description:        "Specialises in suggesting seo optimisations",
			Address:            "0x2f7D95566BfAF09Ee5CA41765486181bdC827583",
			CostPerOutputToken: 0.000003,
			Capability:         domain.CapabilitySEOOptimizer,
		},
		{
			Name:               "github_code_agent",
			Description:        "Specialises in writing and pushing code to a github repository via pull requests",
			Address:            "0xBe53bed7B566b5c5a11361664cf9eaE5bB18Ed9a",
			CostPerOutputToken: 0.000005,
			Capability:         domain.CapabilityCodePublisher,
		},
		{
			Name:               "reddit_sentiment_agent",
			Description:        "Specialises in analysing reddit sentiment and generating a gtm strategy",
			Address:            "0x44D44273687060902990E6015D64632180529626",
			CostPerOutputToken: 0.000001,
			Capability:         domain.CapabilitySentimentAnalyzer,
		},
		{
			Name:               "image_generation_agent",
			Description:        "Specialises in generating images from text prompts",
			Address:            "0x93b0963E157359E77381270361692589062b162D",
			CostPerOutputToken: 0.000001,
			Capability:         domain.CapabilityImageGenerator,
		},
		{
			Name:               "content_analysis_agent",
			Description:        "Specialises in analysing content and providing insights",
			Address:            "0x1734424505540188195351964754846154681093",
			CostPerOutputToken: 0.000002,
			Capability:         domain.CapabilityContentAnalyzer,
		},
		{
			Name:               "farcaster_sentiment_agent",
			Description:        "Specialises in analysing farcaster sentiment and generating a gtm strategy",
			Address:            "0x70181B550073B296D50b843b134440270B275050",
			CostPerOutputToken: 0.000003,
			Capability:         domain.CapabilitySentimentAnalyzer,
		},
	}
}

// LoadCatalogue reads a YAML catalogue file.
func LoadCatalogue(path string) ([]domain.AgentDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// ParseCatalogue decodes a YAML catalogue.
func ParseCatalogue(data []byte) ([]domain.AgentDescriptor, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	for i, a := range c.Agents {
		if a.Name == "" {
			return nil, fmt.Errorf("catalogue entry %d has no name", i)
		}
		if !ValidAddress(a.Address) {
			return nil, fmt.Errorf("catalogue entry %s has malformed address %q", a.Name, a.Address)
		}
	}
	return c.Agents, nil
}
