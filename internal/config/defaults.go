package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "purelymail-server",
			Port: 4250,
			Host: "localhost",
		},
		API: APIConfig{
			BaseURL:         "https://purelymail.com",
			TokenHeader:     "Purelymail-Api-Token",
			TimeoutSeconds:  300,
			CacheMaxEntries: 256,
		},
		Document: DocumentConfig{
			Path:      "purelymail-api-spec.json",
			SourceURL: "https://news.purelymail.com/api/swagger-spec.js",
		},
		Tools: ToolsConfig{
			Strategy: "per_operation",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
