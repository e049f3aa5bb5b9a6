package scenarios

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Loader handles loading scenario configurations from TOML files.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a new scenario configuration loader.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		log: log.With().Str("component", "scenario_loader").Logger(),
	}
}

// LoadFromFile loads and validates a scenario configuration from a TOML file.
func (l *Loader) LoadFromFile(configPath string) (*Document, error) {
	l.log.Info().Str("path", configPath).Msg("Loading scenario configuration")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	var doc Document
	md, err := toml.DecodeFile(configPath, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return l.finish(&doc, md)
}

// LoadFromString loads and validates a scenario configuration from a TOML string.
func (l *Loader) LoadFromString(tomlString string) (*Document, error) {
	l.log.Debug().Msg("Loading scenario configuration from string")

	var doc Document
	md, err := toml.Decode(tomlString, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	return l.finish(&doc, md)
}

func (l *Loader) finish(doc *Document, md toml.MetaData) (*Document, error) {
	for _, key := range md.Undecoded() {
		l.log.Warn().Str("key", key.String()).Msg("Ignoring unknown configuration key")
	}

	if err := NewValidator().Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid scenario configuration: %w", err)
	}

	for _, w := range UnknownCategories(doc) {
		l.log.Warn().
			Str("scenario", w.Scenario).
			Str("category", w.Category).
			Msg("Scenario references a category with no configured conditions")
	}

	l.log.Info().
		Int("scenarios", len(doc.Scenarios)).
		Int("call_categories", len(doc.Categories.Call)).
		Int("put_categories", len(doc.Categories.Put)).
		Bool("quality_override", doc.Quality != nil).
		Bool("market_condition_override", doc.MarketCondition != nil).
		Msg("Scenario configuration loaded successfully")

	return doc, nil
}

// ToString converts a scenario configuration to a TOML string.
func (l *Loader) ToString(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode config to TOML: %w", err)
	}
	return buf.String(), nil
}
