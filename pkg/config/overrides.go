package config

import (
	"os"
	"strings"
)

// Environment variables consulted by Resolve.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
)

// Overrides are per-run values from command-line flags. Empty fields leave
// the stored value in place.
type Overrides struct {
	APIKey  string
	BaseURL string
	Model   string
	Mode    string
}

// Resolved is the effective configuration for one run: flags win over
// environment variables, which win over the config file and its defaults.
type Resolved struct {
	LLM     LLMSettings
	Chat    ChatSettings
	Browser BrowserSettings
}

// Resolve merges the stored sections with the environment and flags. Nil
// sections fall back to defaults. Nothing is written back to the store.
func Resolve(llm *LLMSection, chat *ChatSection, browser *BrowserSection, flags Overrides) Resolved {
	if llm == nil {
		llm = NewLLMSection()
	}
	if chat == nil {
		chat = NewChatSection()
	}
	if browser == nil {
		browser = NewBrowserSection()
	}

	r := Resolved{
		LLM:     llm.Settings(),
		Chat:    chat.Settings(),
		Browser: browser.Settings(),
	}

	r.LLM.APIKey = firstNonEmpty(flags.APIKey, os.Getenv(EnvAPIKey), r.LLM.APIKey)
	r.LLM.BaseURL = firstNonEmpty(flags.BaseURL, os.Getenv(EnvBaseURL), r.LLM.BaseURL)
	r.LLM.Model = firstNonEmpty(flags.Model, r.LLM.Model)
	r.Chat.Mode = firstNonEmpty(flags.Mode, r.Chat.Mode)
	return r
}

// ResolveGlobal is Resolve over the global sections.
func ResolveGlobal(flags Overrides) Resolved {
	return Resolve(GetLLM(), GetChat(), GetBrowser(), flags)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
