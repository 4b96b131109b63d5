package clientconf

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default RPC endpoints for the built-in environments.
const (
	DevnetURL       = "https://fullnode.devnet.dwallet.cloud:443"
	TestnetURL      = "https://fullnode.testnet.dwallet.cloud:443"
	LocalNetworkURL = "http://127.0.0.1:9000"
)

// Env is a named RPC environment a client can connect to.
type Env struct {
	Alias string  `yaml:"alias"`
	RPC   string  `yaml:"rpc"`
	WS    *string `yaml:"ws,omitempty"`
}

func Devnet() Env   { return Env{Alias: "devnet", RPC: DevnetURL} }
func Testnet() Env  { return Env{Alias: "testnet", RPC: TestnetURL} }
func Localnet() Env { return Env{Alias: "local", RPC: LocalNetworkURL} }

func (e Env) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active environment : %s\n", e.Alias)
	fmt.Fprintf(&b, "RPC URL: %s", e.RPC)
	if e.WS != nil {
		fmt.Fprintf(&b, "\nWebsocket URL: %s", *e.WS)
	}
	return b.String()
}

// ClientConfig is the persisted client profile: where the keys live, which
// environments are known, and which environment and address are active.
type ClientConfig struct {
	// KeystorePath locates the keystore file; the keystore itself is
	// loaded separately with NewKeystore.
	KeystorePath  string   `yaml:"keystore"`
	Envs          []Env    `yaml:"envs"`
	ActiveEnv     *string  `yaml:"active_env,omitempty"`
	ActiveAddress *Address `yaml:"active_address,omitempty"`
}

// New returns an empty profile backed by the given keystore file.
func New(keystorePath string) *ClientConfig {
	return &ClientConfig{KeystorePath: keystorePath}
}

// GetEnv returns the environment with the given alias, or the first known
// environment when alias is nil. Returns nil when nothing matches.
func (c *ClientConfig) GetEnv(alias *string) *Env {
	if alias == nil {
		if len(c.Envs) == 0 {
			return nil
		}
		return &c.Envs[0]
	}
	for i := range c.Envs {
		if c.Envs[i].Alias == *alias {
			return &c.Envs[i]
		}
	}
	return nil
}

// GetActiveEnv returns the active environment.
func (c *ClientConfig) GetActiveEnv() (*Env, error) {
	env := c.GetEnv(c.ActiveEnv)
	if env == nil {
		name := "None"
		if c.ActiveEnv != nil {
			name = *c.ActiveEnv
		}
		return nil, fmt.Errorf("clientconf: environment configuration not found for env [%s]", name)
	}
	return env, nil
}

// AddEnv adds an environment unless one with the same alias already exists.
func (c *ClientConfig) AddEnv(env Env) {
	for _, other := range c.Envs {
		if other.Alias == env.Alias {
			return
		}
	}
	c.Envs = append(c.Envs, env)
}

// Load reads a profile from a YAML file.
func Load(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("clientconf: read config %q: %w", path, err)
	}
	var c ClientConfig
	if err = yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("clientconf: parse config %q: %w", path, err)
	}
	return &c, nil
}

// Save writes the profile to a YAML file.
func (c *ClientConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("clientconf: encode config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("clientconf: write config %q: %w", path, err)
	}
	return nil
}

func (c *ClientConfig) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active address: ")
	if c.ActiveAddress != nil {
		fmt.Fprintf(&b, "%s\n", c.ActiveAddress)
	} else {
		fmt.Fprintf(&b, "None\n")
	}
	if env, err := c.GetActiveEnv(); err == nil {
		fmt.Fprintf(&b, "%s", env)
	}
	return b.String()
}
