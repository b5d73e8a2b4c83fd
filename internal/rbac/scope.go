package rbac

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gorm.io/datatypes"

	"github.com/legaldesk/legaldesk/internal/db/models"
)

// Scope restricts a resource to the listed instance ids.
type Scope struct {
	Resource  string   `json:"resource"`
	Instances []string `json:"instances"`
}

// AssignmentContext is the attribute payload stored with an assignment.
// Attributes are carried for callers and never consulted by the engine.
type AssignmentContext struct {
	Scopes     []Scope        `json:"scopes,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Permits reports whether the context allows instance of resource.
// A query without an instance is never restricted, and a context with no
// scope for resource leaves that resource unrestricted.
func (c AssignmentContext) Permits(resource, instance string) bool {
	if instance == "" {
		return true
	}

	restricted := false

	for _, s := range c.Scopes {
		if s.Resource != resource {
			continue
		}

		restricted = true

		if slices.Contains(s.Instances, instance) {
			return true
		}
	}

	return !restricted
}

// Empty reports whether the context carries nothing.
func (c AssignmentContext) Empty() bool {
	return len(c.Scopes) == 0 && len(c.Attributes) == 0
}

func (c AssignmentContext) validate(v *Vocabulary) error {
	for _, s := range c.Scopes {
		if strings.TrimSpace(s.Resource) == "" {
			return fmt.Errorf("%w: scope without resource", ErrInvalidContext)
		}

		if !v.Contains(s.Resource) {
			return fmt.Errorf("%w: unknown resource %q", ErrInvalidContext, s.Resource)
		}
	}

	return nil
}

func encodeContext(c *AssignmentContext) (datatypes.JSON, error) {
	if c == nil || c.Empty() {
		return nil, nil
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}

	return datatypes.JSON(raw), nil
}

func decodeContext(raw datatypes.JSON) (AssignmentContext, error) {
	var c AssignmentContext

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return c, nil
	}

	if err := json.Unmarshal(raw, &c); err != nil {
		return AssignmentContext{}, fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}

	return c, nil
}

// ContextOf decodes the context stored with an assignment.
func ContextOf(a *models.RoleAssignment) (AssignmentContext, error) {
	return decodeContext(a.Context)
}

// ParseScope parses "resource=id1,id2" as given on the command line.
func ParseScope(s string) (Scope, error) {
	resource, ids, ok := strings.Cut(s, "=")
	resource = strings.ToLower(strings.TrimSpace(resource))

	if !ok || resource == "" {
		return Scope{}, fmt.Errorf("%w: scope %q is not resource=id[,id]", ErrInvalidContext, s)
	}

	var instances []string

	for _, id := range strings.Split(ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			instances = append(instances, id)
		}
	}

	if len(instances) == 0 {
		return Scope{}, fmt.Errorf("%w: scope %q lists no instance", ErrInvalidContext, s)
	}

	return Scope{Resource: resource, Instances: instances}, nil
}
