package tools

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Registry is a static mapping from tool name to handler. It is populated at
// agent construction and read-only afterwards, so it is safe to share across
// concurrent agent loops. Names are matched case-insensitively, as models do
// not reliably preserve casing.
type Registry struct {
	byName map[string]ITool
	specs  []Spec
}

// NewRegistry creates a registry with the given tools in order.
func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	for _, tool := range list {
		if err := r.register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(tool ITool) error {
	name := tool.Name()
	key := strings.ToLower(name)
	if _, ok := r.byName[key]; ok {
		return errors.WithMessagef(ErrDuplicateTool, "tool %q", name)
	}
	r.byName[key] = tool
	r.specs = append(r.specs, Spec{
		Name:        name,
		Description: tool.Description(),
		Parameters:  tool.Parameters(),
	})
	return nil
}

// Resolve returns the tool registered under the name.
func (r *Registry) Resolve(name string) (ITool, error) {
	tool, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownTool, "tool %q", name)
	}
	return tool, nil
}

// Specs returns the tool specs in registration order.
// Repeated calls return an identical sequence.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for _, s := range r.specs {
		names = append(names, s.Name)
	}
	return names
}
