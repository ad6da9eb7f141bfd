package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentProviderName = "CASCADE_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "CASCADE_AGENT_BASE_URL"
	EnvAgentToken        = "CASCADE_AGENT_TOKEN"
	EnvAgentDeployment   = "CASCADE_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "CASCADE_AGENT_API_VERSION"
	EnvAgentAuthType     = "CASCADE_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "CASCADE_AGENT_MODEL_NAME"
)

// FinalizeAgent finalizes the embedded go-agents AgentConfig the same
// way native sections finalize: defaults, environment overrides, then
// validation. Defaults come from go-agents DefaultAgentConfig.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	loadAgentDefaults(c)
	loadAgentEnv(c)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	envString(EnvAgentProviderName, &c.Provider.Name)
	envString(EnvAgentBaseURL, &c.Provider.BaseURL)
	envString(EnvAgentModelName, &c.Model.Name)

	// Provider options only gain keys that are actually set; an absent
	// env var must not plant an empty option value.
	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider == nil:
		return fmt.Errorf("provider required")
	case c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	case c.Model == nil:
		return fmt.Errorf("model required")
	}
	return nil
}
