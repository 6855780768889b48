package access

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Action is a role-gated operation. Role gating is the coarse outer check;
// per-resource access goes through the Resolver.
type Action string

const (
	ActionCreateDirectory Action = "create_directory"
	ActionDeleteDirectory Action = "delete_directory"
	ActionUploadFile      Action = "upload_file"
	ActionGrantPermission Action = "grant_permission"
	ActionReviewFile      Action = "review_file"
	ActionViewApprovals   Action = "view_approvals"
	ActionRestoreVersion  Action = "restore_version"
	ActionDeleteVersion   Action = "delete_version"
)

// rolePolicy is the YAML shape: role name -> list of allowed actions.
type rolePolicy struct {
	Roles map[string][]Action `yaml:"roles"`
}

// Registry answers whether a role may perform an action. Policies are
// loaded once from the embedded YAML file.
type Registry struct {
	allowed map[models.Role]map[Action]bool
	mu      sync.RWMutex
}

// NewRegistry creates a new policy registry and loads the embedded YAML file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read role policy: %w", err)
	}

	var policy rolePolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role policy: %w", err)
	}

	r := &Registry{allowed: make(map[models.Role]map[Action]bool)}
	for roleName, actions := range policy.Roles {
		role := models.Role(roleName)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q in role policy", roleName)
		}
		set := make(map[Action]bool, len(actions))
		for _, action := range actions {
			set[action] = true
		}
		r.allowed[role] = set
	}

	return r, nil
}

// Allows reports whether the role may perform the action.
func (r *Registry) Allows(role models.Role, action Action) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.allowed[role]
	if !ok {
		return false
	}
	return set[action]
}

// Require returns nil if the role may perform the action, or a forbidden
// error naming the action otherwise.
func (r *Registry) Require(role models.Role, action Action) error {
	if r.Allows(role, action) {
		return nil
	}
	return fmt.Errorf("role %s may not %s: %w", role, action, domain.ErrForbidden)
}
