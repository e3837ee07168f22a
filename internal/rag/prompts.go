package rag

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// DefaultProfileID identifies the built-in prompt profile.
const DefaultProfileID = "default"

// promptFile is the on-disk YAML layout for prompt profiles.
type promptFile struct {
	Profiles []*models.PromptProfile `yaml:"profiles"`
}

// ParsePromptProfiles parses a YAML prompt profile file.
func ParsePromptProfiles(filePath string) ([]*models.PromptProfile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParsePromptProfilesFromReader(file)
}

// ParsePromptProfilesFromReader parses profiles from an io.Reader.
func ParsePromptProfilesFromReader(r io.Reader) ([]*models.PromptProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}

	for _, profile := range pf.Profiles {
		if err := validateProfile(profile); err != nil {
			return nil, err
		}
	}

	return pf.Profiles, nil
}

func validateProfile(p *models.PromptProfile) error {
	if p.ID == "" {
		return fmt.Errorf("prompt profile missing id")
	}
	if p.Template != "" {
		if !strings.Contains(p.Template, "{question}") || !strings.Contains(p.Template, "{context}") {
			return fmt.Errorf("profile %s: template must contain {question} and {context}", p.ID)
		}
	}
	return nil
}

// PromptRegistry holds the prompt profiles available for summarization.
// The built-in default is always present and cannot be replaced.
type PromptRegistry struct {
	mu       sync.RWMutex
	profiles map[string]*models.PromptProfile
}

// NewPromptRegistry creates a registry seeded with the built-in profile.
func NewPromptRegistry() *PromptRegistry {
	reg := &PromptRegistry{profiles: make(map[string]*models.PromptProfile)}
	reg.profiles[DefaultProfileID] = &models.PromptProfile{
		ID:       DefaultProfileID,
		Name:     "Document Summary",
		Question: DefaultQuestion,
		Template: DefaultTemplate,
		BuiltIn:  true,
	}
	return reg
}

// Get returns a profile by ID. An empty ID resolves to the default.
func (pr *PromptRegistry) Get(id string) (*models.PromptProfile, bool) {
	if id == "" {
		id = DefaultProfileID
	}

	pr.mu.RLock()
	defer pr.mu.RUnlock()

	profile, ok := pr.profiles[id]
	return profile, ok
}

// Default returns the built-in profile.
func (pr *PromptRegistry) Default() *models.PromptProfile {
	profile, _ := pr.Get(DefaultProfileID)
	return profile
}

// List returns all profiles, the built-in default first and the rest
// sorted by name.
func (pr *PromptRegistry) List() []*models.PromptProfile {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	list := make([]*models.PromptProfile, 0, len(pr.profiles))
	for _, profile := range pr.profiles {
		list = append(list, profile)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].BuiltIn != list[j].BuiltIn {
			return list[i].BuiltIn
		}
		return list[i].Name < list[j].Name
	})

	return list
}

// Add registers a profile. The built-in default cannot be replaced.
func (pr *PromptRegistry) Add(profile *models.PromptProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	if profile.ID == DefaultProfileID {
		return fmt.Errorf("cannot replace built-in profile")
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()

	profile.BuiltIn = false
	pr.profiles[profile.ID] = profile
	return nil
}

// LoadFile adds all profiles from a YAML file and returns how many were
// added.
func (pr *PromptRegistry) LoadFile(path string) (int, error) {
	profiles, err := ParsePromptProfiles(path)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, profile := range profiles {
		if err := pr.Add(profile); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// SaveFile writes the custom profiles to a YAML file so they survive
// restarts. The built-in profile is not written.
func (pr *PromptRegistry) SaveFile(path string) error {
	pr.mu.RLock()
	var custom []*models.PromptProfile
	for _, profile := range pr.profiles {
		if !profile.BuiltIn {
			custom = append(custom, profile)
		}
	}
	pr.mu.RUnlock()

	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })

	data, err := yaml.Marshal(promptFile{Profiles: custom})
	if err != nil {
		return fmt.Errorf("encoding profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing profiles: %w", err)
	}
	return nil
}
