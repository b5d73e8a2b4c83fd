package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Capability is a validated (resource, action) pair.
type Capability struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// NewCapability normalises resource and action.
func NewCapability(resource, action string) (Capability, error) {
	c := Capability{
		Resource: strings.ToLower(strings.TrimSpace(resource)),
		Action:   strings.ToLower(strings.TrimSpace(action)),
	}

	if c.Resource == "" || c.Action == "" || strings.ContainsAny(c.Action, ". ") || strings.Contains(c.Resource, " ") {
		return Capability{}, fmt.Errorf("%w: %q.%q", ErrInvalidCapability, resource, action)
	}

	return c, nil
}

// ParseCapability parses the resource.action form; the action is the part after the last dot.
func ParseCapability(s string) (Capability, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Capability{}, fmt.Errorf("%w: %q", ErrInvalidCapability, s)
	}

	return NewCapability(s[:i], s[i+1:])
}

// MustCapability is ParseCapability for package level constants.
func MustCapability(s string) Capability {
	c, err := ParseCapability(s)
	if err != nil {
		panic(err)
	}

	return c
}

func (c Capability) String() string {
	return c.Resource + "." + c.Action
}

// Vocabulary is the closed set of capabilities the engine accepts.
type Vocabulary struct {
	allowed map[Capability]struct{}
}

// NewVocabulary builds a vocabulary from resource to actions, as configured.
func NewVocabulary(resources map[string][]string) (*Vocabulary, error) {
	v := &Vocabulary{allowed: make(map[Capability]struct{})}

	for resource, actions := range resources {
		for _, action := range actions {
			c, err := NewCapability(resource, action)
			if err != nil {
				return nil, err
			}

			v.allowed[c] = struct{}{}
		}
	}

	return v, nil
}

// Validate returns ErrUnknownCapability for pairs outside the vocabulary.
func (v *Vocabulary) Validate(c Capability) error {
	if _, ok := v.allowed[c]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCapability, c)
	}

	return nil
}

// Parse parses s and checks it against the vocabulary.
func (v *Vocabulary) Parse(s string) (Capability, error) {
	c, err := ParseCapability(s)
	if err != nil {
		return Capability{}, err
	}

	return c, v.Validate(c)
}

// Contains reports whether resource has at least one action in the vocabulary.
func (v *Vocabulary) Contains(resource string) bool {
	for c := range v.allowed {
		if c.Resource == resource {
			return true
		}
	}

	return false
}

// Capabilities returns every capability in resource.action order.
func (v *Vocabulary) Capabilities() []Capability {
	out := make([]Capability, 0, len(v.allowed))
	for c := range v.allowed {
		out = append(out, c)
	}

	sortCapabilities(out)

	return out
}

func sortCapabilities(caps []Capability) {
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].Resource != caps[j].Resource {
			return caps[i].Resource < caps[j].Resource
		}

		return caps[i].Action < caps[j].Action
	})
}
