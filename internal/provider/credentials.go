package provider

import (
	"github.com/kitbuilder587/websearch/internal/search"
)

// Имена переменных окружения с кредами. Они же попадают в подсказки пользователю.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvGoogleCSEID  = "GOOGLE_CSE_ID"
	EnvBraveAPIKey  = "BRAVE_API_KEY"
	EnvXAIAPIKey    = "XAI_API_KEY"
)

// Credentials - все четыре опциональных значения. Google нужен ключ И cx.
type Credentials struct {
	GoogleAPIKey string `json:"googleApiKey,omitempty"`
	GoogleCSEID  string `json:"googleCseId,omitempty"`
	BraveAPIKey  string `json:"braveApiKey,omitempty"`
	XAIAPIKey    string `json:"xaiApiKey,omitempty"`
}

// Merge возвращает c, в котором непустые поля override перекрывают свои.
func (c Credentials) Merge(override *Credentials) Credentials {
	if override == nil {
		return c
	}
	out := c
	if override.GoogleAPIKey != "" {
		out.GoogleAPIKey = override.GoogleAPIKey
	}
	if override.GoogleCSEID != "" {
		out.GoogleCSEID = override.GoogleCSEID
	}
	if override.BraveAPIKey != "" {
		out.BraveAPIKey = override.BraveAPIKey
	}
	if override.XAIAPIKey != "" {
		out.XAIAPIKey = override.XAIAPIKey
	}
	return out
}

// Missing - имена переменных, которых не хватает провайдеру id.
func (c Credentials) Missing(id search.Identity) []string {
	var missing []string
	switch id {
	case search.Google:
		if c.GoogleAPIKey == "" {
			missing = append(missing, EnvGoogleAPIKey)
		}
		if c.GoogleCSEID == "" {
			missing = append(missing, EnvGoogleCSEID)
		}
	case search.Brave:
		if c.BraveAPIKey == "" {
			missing = append(missing, EnvBraveAPIKey)
		}
	case search.XAI:
		if c.XAIAPIKey == "" {
			missing = append(missing, EnvXAIAPIKey)
		}
	}
	return missing
}

// Complete - у id есть полный набор кредов.
func (c Credentials) Complete(id search.Identity) bool {
	return id.IsKnown() && len(c.Missing(id)) == 0
}

// RequiredEnv - какие переменные нужны провайдеру, для подсказок.
func RequiredEnv(id search.Identity) []string {
	return Credentials{}.Missing(id)
}
