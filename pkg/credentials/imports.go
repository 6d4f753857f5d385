package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadCodexAuthFile reads ~/.codex/auth.json and returns its contents and path.
// Returns nil, "" if the file cannot be read.
func ReadCodexAuthFile() ([]byte, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, ""
	}

	authPath := filepath.Join(home, ".codex", "auth.json")
	data, err := os.ReadFile(authPath)
	if err != nil {
		return nil, ""
	}

	return data, authPath
}

// ExtractCodexKey returns the OpenAI API key stored in a codex auth.json.
// Codex keeps the key under the top-level "OPENAI_API_KEY" field, which may
// be null or absent when the user authenticated via OAuth instead.
// Returns "", false when no usable key is present.
func ExtractCodexKey(data []byte) (string, bool) {
	var auth map[string]json.RawMessage
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", false
	}

	raw, ok := auth["OPENAI_API_KEY"]
	if !ok {
		return "", false
	}

	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return "", false
	}
	if key == "" {
		return "", false
	}

	return key, true
}

// ReadOpenCodeAuthFile reads ~/.local/share/opencode/auth.json and returns its
// contents and path. Returns nil, "" if the file cannot be read.
func ReadOpenCodeAuthFile() ([]byte, string) {
	// OpenCode stores auth at $XDG_DATA_HOME/opencode/auth.json,
	// defaulting to ~/.local/share/opencode/auth.json.
	var dataDir string
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataDir = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, ""
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	authPath := filepath.Join(dataDir, "opencode", "auth.json")
	data, err := os.ReadFile(authPath)
	if err != nil {
		return nil, ""
	}

	return data, authPath
}

// ExtractOpenCodeKey returns the API key stored for a provider in an opencode
// auth.json. OAuth entries carry tokens instead of a key and are ignored.
// Returns "", false when no usable key is present.
func ExtractOpenCodeKey(data []byte, provider string) (string, bool) {
	var auth map[string]struct {
		Type string `json:"type"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", false
	}

	entry, ok := auth[provider]
	if !ok {
		return "", false
	}
	if entry.Type == "oauth" || entry.Key == "" {
		return "", false
	}

	return entry.Key, true
}

// ImportKey searches neighboring tools' auth files for an API key usable by
// the given provider, so `liner auth --import` can pick up a key the user has
// already configured elsewhere. Codex is consulted first for openai, then
// opencode for any provider. Returns the key, the file it came from, and
// whether one was found.
func ImportKey(provider string) (string, string, bool) {
	if provider == "openai" {
		if data, path := ReadCodexAuthFile(); data != nil {
			if key, ok := ExtractCodexKey(data); ok {
				return key, path, true
			}
		}
	}

	if data, path := ReadOpenCodeAuthFile(); data != nil {
		if key, ok := ExtractOpenCodeKey(data, provider); ok {
			return key, path, true
		}
	}

	return "", "", false
}
