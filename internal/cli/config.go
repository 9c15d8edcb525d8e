package cli

import (
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	PlayerID     string
	CooldownFile string
	Output       string
	Verbose      bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("RPGDASH_SERVER", "http://localhost:8080"),
		PlayerID:     os.Getenv("RPGDASH_PLAYER"),
		CooldownFile: getEnvOrDefault("RPGDASH_COOLDOWN_FILE", defaultCooldownFile()),
		Output:       "text",
		Verbose:      false,
	}
}

func defaultCooldownFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rpgdash", "cooldowns.json")
	}
	return filepath.Join(home, ".rpgdash", "cooldowns.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
