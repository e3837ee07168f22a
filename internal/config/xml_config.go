// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/gommon/bytes"
)

// DefaultFileName is the config file looked up next to the binary when
// SUMLYZER_CONFIG is not set.
const DefaultFileName = "sumlyzer.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"Sumlyzer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Preview fallback chain thresholds
	Preview PreviewConfig `xml:"Preview"`

	// Retrieval and generation settings
	RAG RAGConfig `xml:"RAG"`

	// Summarize pipeline settings
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `xml:"Port"`
	BindAddress       string `xml:"BindAddress"`
	EnableCORS        bool   `xml:"EnableCORS"`
	AllowOrigins      string `xml:"AllowOrigins"`
	ReadTimeout       int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout      int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds"`
	BodyLimit         string `xml:"BodyLimit"`
	EnableCompression bool   `xml:"EnableCompression"`
}

// StorageConfig contains file storage settings. Directories left empty are
// derived from DataDirectory.
type StorageConfig struct {
	DataDirectory      string `xml:"DataDirectory"`
	DocumentsDirectory string `xml:"DocumentsDirectory"`
	ChunksDirectory    string `xml:"ChunksDirectory"`
	VectorsDirectory   string `xml:"VectorsDirectory"`
	PromptsDirectory   string `xml:"PromptsDirectory"`
	HistoryPath        string `xml:"HistoryPath"`
}

// PreviewConfig contains the preview chain thresholds. Sizes accept the
// usual suffixes ("5M", "100M").
type PreviewConfig struct {
	InlineLimit   string `xml:"InlineLimit"`
	EncodedLimit  string `xml:"EncodedLimit"`
	MetadataLimit string `xml:"MetadataLimit"`
	HardCap       string `xml:"HardCap"`
	SnippetChars  int    `xml:"SnippetChars"`
	SnippetPages  int    `xml:"SnippetPages"`
}

// RAGConfig contains chunking, embedding and generation settings. API keys
// are never read from this file, only from the environment.
type RAGConfig struct {
	Model             string `xml:"Model"`
	BaseURL           string `xml:"BaseURL"`
	EmbeddingModel    string `xml:"EmbeddingModel"`
	EmbeddingBaseURL  string `xml:"EmbeddingBaseURL"`
	ChunkSize         int    `xml:"ChunkSize"`
	ChunkOverlap      int    `xml:"ChunkOverlap"`
	MinPageChars      int    `xml:"MinPageChars"`
	ChunkByTokens     bool   `xml:"ChunkByTokens"`
	TopK              int    `xml:"TopK"`
	EmbeddingCacheSize int   `xml:"EmbeddingCacheSize"`
	MaxRetries        int    `xml:"MaxRetries"`
}

// ProcessingConfig contains summarize job settings
type ProcessingConfig struct {
	MaxPages               int `xml:"MaxPages"`
	MinTextChars           int `xml:"MinTextChars"`
	JobTimeoutMinutes      int `xml:"JobTimeoutMinutes"`
	JobTTLMinutes          int `xml:"JobTTLMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
	RecentLimit            int `xml:"RecentLimit"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowDocumentDeletion bool `xml:"AllowDocumentDeletion"`
	AllowHistoryClear     bool `xml:"AllowHistoryClear"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFormat            string `xml:"LogFormat"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8089,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadTimeout:       30,
			WriteTimeout:      120,
			IdleTimeout:       120,
			BodyLimit:         "120M",
			EnableCompression: true,
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
		},
		Preview: PreviewConfig{
			InlineLimit:   "5M",
			EncodedLimit:  "10M",
			MetadataLimit: "50M",
			HardCap:       "100M",
			SnippetChars:  500,
			SnippetPages:  10,
		},
		RAG: RAGConfig{
			Model:              "deepseek-r1-distill-llama-70b",
			BaseURL:            "https://api.groq.com/openai/v1",
			EmbeddingModel:     "text-embedding-3-small",
			ChunkSize:          1000,
			ChunkOverlap:       100,
			MinPageChars:       10,
			ChunkByTokens:      false,
			TopK:               4,
			EmbeddingCacheSize: 4096,
			MaxRetries:         3,
		},
		Processing: ProcessingConfig{
			MaxPages:               0,
			MinTextChars:           50,
			JobTimeoutMinutes:      5,
			JobTTLMinutes:          30,
			CleanupIntervalMinutes: 5,
			RecentLimit:            20,
		},
		Security: SecurityConfig{
			AllowDocumentDeletion: true,
			AllowHistoryClear:     true,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFormat:            "text",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.deriveStoragePaths()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Fill in directories derived from the data directory
	config.deriveStoragePaths()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Sumlyzer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	// GROQ_BASE_URL override for self-hosted or proxied endpoints
	if baseURL := os.Getenv("GROQ_BASE_URL"); baseURL != "" {
		c.RAG.BaseURL = baseURL
	}
}

// deriveStoragePaths fills empty storage paths from the data directory, so
// a DATA_DIR override moves everything that was not set explicitly.
func (c *AppConfig) deriveStoragePaths() {
	if c.Storage.DocumentsDirectory == "" {
		c.Storage.DocumentsDirectory = filepath.Join(c.Storage.DataDirectory, "documents")
	}
	if c.Storage.ChunksDirectory == "" {
		c.Storage.ChunksDirectory = filepath.Join(c.Storage.DataDirectory, "chunks")
	}
	if c.Storage.VectorsDirectory == "" {
		c.Storage.VectorsDirectory = filepath.Join(c.Storage.DataDirectory, "vectors")
	}
	if c.Storage.PromptsDirectory == "" {
		c.Storage.PromptsDirectory = filepath.Join(c.Storage.DataDirectory, "prompts")
	}
	if c.Storage.HistoryPath == "" {
		c.Storage.HistoryPath = filepath.Join(c.Storage.DataDirectory, "history.duckdb")
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	paths := []*string{
		&c.Storage.DataDirectory,
		&c.Storage.DocumentsDirectory,
		&c.Storage.ChunksDirectory,
		&c.Storage.VectorsDirectory,
		&c.Storage.PromptsDirectory,
		&c.Storage.HistoryPath,
	}
	for _, p := range paths {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.DocumentsDirectory,
		c.Storage.ChunksDirectory,
		c.Storage.VectorsDirectory,
		c.Storage.PromptsDirectory,
		filepath.Dir(c.Storage.HistoryPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Parsed size accessors. Invalid values in the file fall back to defaults
// rather than failing startup.

// InlineLimitBytes returns the raw size bound for inline previews.
func (p PreviewConfig) InlineLimitBytes() int64 {
	return sizeOrDefault(p.InlineLimit, 5*1024*1024)
}

// EncodedLimitBytes returns the transport bound for base64 payloads.
func (p PreviewConfig) EncodedLimitBytes() int64 {
	return sizeOrDefault(p.EncodedLimit, 10*1024*1024)
}

// MetadataLimitBytes returns the size bound for the metadata tier.
func (p PreviewConfig) MetadataLimitBytes() int64 {
	return sizeOrDefault(p.MetadataLimit, 50*1024*1024)
}

// HardCapBytes returns the absolute upload size cap.
func (p PreviewConfig) HardCapBytes() int64 {
	return sizeOrDefault(p.HardCap, 100*1024*1024)
}

func sizeOrDefault(value string, fallback int64) int64 {
	if value == "" {
		return fallback
	}
	n, err := bytes.Parse(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
