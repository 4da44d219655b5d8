package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "embedding-001"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxRepairAttempts == 0 {
		cfg.LLM.MaxRepairAttempts = 2
	}
	if cfg.Ingest.UploadsDir == "" {
		cfg.Ingest.UploadsDir = "uploads"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.TopK == 0 {
		cfg.Ingest.TopK = 5
	}
	if cfg.Ingest.DownloadTimeoutSeconds == 0 {
		cfg.Ingest.DownloadTimeoutSeconds = 30
	}
	if cfg.Sessions.MaxSessions == 0 {
		cfg.Sessions.MaxSessions = 128
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".txt"}
	}
	if cfg.Watch.Session == "" {
		cfg.Watch.Session = "watch"
	}
}
