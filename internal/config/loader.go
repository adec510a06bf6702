package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAccountFile is the account file name searched for by default.
const DefaultAccountFile = "account.yaml"

// ErrAccountNotFound is returned when the account file does not exist.
var ErrAccountNotFound = errors.New("account file not found")

// AccountFile is the YAML account file. It carries the credentials and
// optional endpoint overrides so none of them have to appear on the
// command line.
type AccountFile struct {
	// Email and Password are the storefront credentials.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// BaseURL overrides the default storefront endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// Proxy is an optional SOCKS5 proxy in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`
}

// LoadAccountFile reads and parses a YAML account file.
func LoadAccountFile(path string) (*AccountFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	var af AccountFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, err
	}
	return &af, nil
}

// FindAccountFile locates the account file: an explicit path wins, then
// the XDG config dir, then the current directory. Returns "" when none
// exists.
func FindAccountFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	xdgPath := filepath.Join(XDGConfigDir(), DefaultAccountFile)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, DefaultAccountFile)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	return ""
}

// Apply copies the account file's values onto the config, leaving any
// value the user already set on the command line untouched.
func (af *AccountFile) Apply(c *Config) {
	if c.Email == "" {
		c.Email = af.Email
	}
	if c.Password == "" {
		c.Password = af.Password
	}
	if af.BaseURL != "" && c.BaseURL == DefaultBaseURL {
		c.BaseURL = af.BaseURL
	}
	if af.Proxy != "" && c.ProxyAddress == "" {
		c.ProxyAddress = af.Proxy
	}
}
