package tracking

import "strings"

// Environment tags every forwarded event with the deployment the event came
// from. Resolution is configuration, not logic: hosts map to environments
// via the host lists below.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvStaging    Environment = "staging"
	EnvProduction Environment = "production"
	EnvUnknown    Environment = "unknown"
)

// EnvironmentMap maps host names to environments. An entry matches a host
// exactly or as a domain suffix.
type EnvironmentMap struct {
	Local      []string `yaml:"local"`
	Staging    []string `yaml:"staging"`
	Production []string `yaml:"production"`
}

// DefaultEnvironmentMap covers local development; staging and production
// hosts come from deployment configuration.
func DefaultEnvironmentMap() EnvironmentMap {
	return EnvironmentMap{
		Local: []string{"localhost", "127.0.0.1"},
	}
}

// Resolve returns the environment for a host name, EnvUnknown when no
// entry matches.
func (m EnvironmentMap) Resolve(host string) Environment {
	host = strings.ToLower(host)
	switch {
	case matchesHost(m.Local, host):
		return EnvLocal
	case matchesHost(m.Staging, host):
		return EnvStaging
	case matchesHost(m.Production, host):
		return EnvProduction
	default:
		return EnvUnknown
	}
}

func matchesHost(entries []string, host string) bool {
	for _, entry := range entries {
		entry = strings.ToLower(entry)
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
