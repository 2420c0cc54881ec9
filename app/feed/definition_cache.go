package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type DefinitionCache struct {
	feedsDir string
	cache    map[string]*Definition
	mu       sync.RWMutex
}

func NewDefinitionCache(feedsDir string) *DefinitionCache {
	return &DefinitionCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Definition),
	}
}

func (dc *DefinitionCache) Run() error {
	if _, err := os.Stat(dc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(dc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		feedName := strings.TrimSuffix(filepath.Base(file), ".yml")

		definition, err := dc.LoadDefinition(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Feed definition loaded", "feed", feedName,
			"enabled", definition.Settings.Enabled, "notify", definition.Settings.Notify)
	}

	return nil
}

func (dc *DefinitionCache) LoadDefinition(feedName string) (*Definition, error) {
	definitionFile := dc.getDefinitionFilePath(feedName)
	definition, err := dc.parseDefinition(definitionFile)
	if err != nil {
		return nil, err
	}

	definition.Name = feedName

	if err := dc.validateDefinition(definition); err != nil {
		return nil, fmt.Errorf("invalid definition %s: %w", definitionFile, err)
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.cache[definition.Name] = definition

	return definition, nil
}

func (dc *DefinitionCache) GetDefinition(feedName string) (*Definition, error) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	definition, ok := dc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("feed definition with name '%s' not found", feedName)
	}
	return definition, nil
}

func (dc *DefinitionCache) GetDefinitions() map[string]*Definition {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	definitionsCopy := make(map[string]*Definition, len(dc.cache))
	for k, v := range dc.cache {
		definitionsCopy[k] = v
	}
	return definitionsCopy
}

func (dc *DefinitionCache) GetDefinitionCount() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.cache)
}

func (dc *DefinitionCache) parseDefinition(definitionFile string) (*Definition, error) {
	data, err := os.ReadFile(definitionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if definition.Settings.MaxEntries == nil {
		maxEntries := 100
		definition.Settings.MaxEntries = &maxEntries
	}

	return &definition, nil
}

// validateDefinition catches operator mistakes at load time. Render-time
// validation still re-checks the full document on every render.
func (dc *DefinitionCache) validateDefinition(definition *Definition) error {
	if definition == nil {
		return fmt.Errorf("definition is nil")
	}

	requiredChannelFields := map[string]string{
		"channel title":       definition.Channel.Title,
		"channel link":        definition.Channel.Link,
		"channel description": definition.Channel.Description,
	}

	for fieldName, fieldValue := range requiredChannelFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if *definition.Settings.MaxEntries <= 0 {
		return fmt.Errorf("max entries must be positive")
	}

	for i, hub := range definition.Channel.Hubs {
		if hub == "" {
			return fmt.Errorf("hub at index %d must not be empty", i)
		}
	}

	return nil
}

func (dc *DefinitionCache) getDefinitionFilePath(feedName string) string {
	return filepath.Join(dc.feedsDir, feedName+".yml")
}
