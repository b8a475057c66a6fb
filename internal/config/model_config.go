package config

type Model struct{}

var _ ModelConfig = Model{}

// GetModelEngine selects the classification engine: "openrouter" (default)
// or "gemini".
func (Model) GetModelEngine() string {
	return GetEnv("MODEL_ENGINE", "openrouter")
}

func (Model) GetOpenRouterKey() string {
	return GetEnv("OPENROUTER_API_KEY", "")
}

func (Model) GetOpenRouterModel() string {
	return GetEnv("OPENROUTER_MODEL", "google/gemini-2.0-flash-001")
}

func (Model) GetOpenRouterURL() string {
	return GetEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions")
}

func (Model) GetGeminiKey() string {
	return GetEnv("GEMINI_API_KEY", "")
}

func (Model) GetGeminiModel() string {
	return GetEnv("GEMINI_MODEL", "gemini-2.0-flash")
}
