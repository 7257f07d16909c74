// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. The feed credentials always win
// over file values so deployments never need secrets in config files.
const (
	APIKeyEnv  = "MARKETAUX_API_KEY"
	BaseURLEnv = "MARKETAUX_BASE_URL"
)

const defaultFeedBaseURL = "https://api.marketaux.com/v1/news/all"

// Config holds the settings for the whole service.
type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Store    StoreConfig    `yaml:"store"`
	Index    IndexConfig    `yaml:"index"`
	AI       AIConfig       `yaml:"ai"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
}

// FeedConfig describes the news feed API.
type FeedConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	APIToken string `yaml:"apiToken"`
	Language string `yaml:"language"`
	PageSize int    `yaml:"pageSize"`
}

// StoreConfig describes the durable article store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig describes the vector index.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// AIConfig describes the model services.
type AIConfig struct {
	EmbeddingHost   string `yaml:"embeddingHost"`
	ChatHost        string `yaml:"chatHost"`
	EmbeddingModel  string `yaml:"embeddingModel"`
	ChatModel       string `yaml:"chatModel"`
	SummaryMaxWords int    `yaml:"summaryMaxWords"`
}

// ScrapeConfig describes scraper politeness settings. Delays are in
// milliseconds so they round-trip through YAML as plain integers.
type ScrapeConfig struct {
	MinDelayMS int `yaml:"minDelayMs"`
	MaxDelayMS int `yaml:"maxDelayMs"`
	MaxRetries int `yaml:"maxRetries"`
}

// MinDelay returns the minimum inter-request delay per domain.
func (s ScrapeConfig) MinDelay() time.Duration {
	return time.Duration(s.MinDelayMS) * time.Millisecond
}

// MaxDelay returns the maximum inter-request delay per domain.
func (s ScrapeConfig) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelayMS) * time.Millisecond
}

// RetrieveConfig describes retrieval tuning.
type RetrieveConfig struct {
	NResults       int     `yaml:"nResults"`
	RecencyMonths  int     `yaml:"recencyMonths"`
	ScoreThreshold float64 `yaml:"scoreThreshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Feed: FeedConfig{
			BaseURL:  defaultFeedBaseURL,
			Language: "en",
			PageSize: 3,
		},
		Store: StoreConfig{Path: "marketnews.db"},
		Index: IndexConfig{Path: "marketnews-index"},
		AI: AIConfig{
			EmbeddingHost:   "http://localhost:11434/v1",
			ChatHost:        "http://localhost:11434/v1",
			EmbeddingModel:  "embeddinggemma",
			ChatModel:       "qwen2.5:3b",
			SummaryMaxWords: 120,
		},
		Scrape: ScrapeConfig{
			MinDelayMS: 2000,
			MaxDelayMS: 5000,
			MaxRetries: 3,
		},
		Retrieve: RetrieveConfig{
			NResults:       50,
			RecencyMonths:  6,
			ScoreThreshold: 0.75,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that order. An empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(APIKeyEnv); v != "" {
		c.Feed.APIToken = v
	}
	if v := os.Getenv(BaseURLEnv); v != "" {
		c.Feed.BaseURL = v
	}
}
