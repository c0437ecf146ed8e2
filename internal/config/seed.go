package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// BoardSeed is the static board metadata read from BOARD_SEED_PATH.
// Values may reference environment variables as ${VAR} or $VAR.
type BoardSeed struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Members     []SeedMember `yaml:"members"`
	// Tasks are inserted only when storage holds no board yet.
	Tasks []SeedTask `yaml:"tasks"`
}

// SeedMember is a board member shown for assignment.
type SeedMember struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// SeedTask is a starter task.
type SeedTask struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	Due         string   `yaml:"due"` // YYYY-MM-DD
	Tags        []string `yaml:"tags"`
	StoryPoints *float64 `yaml:"story_points"`
	Assignee    string   `yaml:"assignee"`
	Subtasks    []string `yaml:"subtasks"`
}

// LoadBoardSeed reads and parses a YAML seed file, expanding env vars.
func LoadBoardSeed(path string) (*BoardSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	seed, err := LoadBoardSeedBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return seed, nil
}

// LoadBoardSeedBytes parses a YAML seed from bytes.
func LoadBoardSeedBytes(data []byte) (*BoardSeed, error) {
	var seed BoardSeed
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &seed); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	applySeedDefaults(&seed)
	return &seed, nil
}

// DefaultBoardSeed is used when no seed file is configured.
func DefaultBoardSeed() *BoardSeed {
	var seed BoardSeed
	applySeedDefaults(&seed)
	return &seed
}

func applySeedDefaults(seed *BoardSeed) {
	if strings.TrimSpace(seed.Name) == "" {
		seed.Name = "My Board"
	}
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the environment value. Missing
// vars become empty strings.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
