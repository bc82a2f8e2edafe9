package capability

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/bosflow/bosflow/model"
)

type policyFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// defaultRoles is the built-in policy used when no policy file is
// configured. Viewers read, authors validate, operators evolve.
var defaultRoles = map[string][]string{
	"viewer": {
		"bos:validation:read",
	},
	"author": {
		"bos:validation:read",
		"bos:validation:run",
		"bos:evolution:plan",
	},
	"operator": {
		"bos:validation:*",
		"bos:evolution:*",
		"bos:backup:*",
	},
	"admin": {
		"bos:*",
	},
}

// StaticPolicy maps roles to capability strings from a YAML file. The
// file can be re-read at runtime with Sync.
type StaticPolicy struct {
	path   string
	mu     sync.RWMutex
	policy policyFile
}

// NewStaticPolicy creates a policy backed by the YAML file at path.
func NewStaticPolicy(path string) (*StaticPolicy, error) {
	p := &StaticPolicy{path: path}
	if err := p.Sync(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewDefaultPolicy creates a policy from the built-in role table.
func NewDefaultPolicy() *StaticPolicy {
	return &StaticPolicy{policy: policyFile{Roles: defaultRoles}}
}

// CapabilitiesFor returns the union of capabilities granted by roles.
func (p *StaticPolicy) CapabilitiesFor(roles []string) model.CapabilitySet {
	p.mu.RLock()
	defer p.mu.RUnlock()

	caps := make(model.CapabilitySet)
	for _, role := range roles {
		for _, cap := range p.policy.Roles[role] {
			caps[cap] = true
		}
	}
	return caps
}

// Sync reloads the policy file from disk. A policy built from the
// default table has no file and syncs as a no-op.
func (p *StaticPolicy) Sync() error {
	if p.path == "" {
		return nil
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("capability: reading policy file %s: %w", p.path, err)
	}

	var parsed policyFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("capability: parsing policy file %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.policy = parsed
	p.mu.Unlock()

	return nil
}
