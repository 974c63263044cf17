package dealersync

import "sort"

// Registry maps document types to their processors.
type Registry struct {
	processors map[string]Processor
}

func NewRegistry(processors ...Processor) *Registry {
	r := &Registry{processors: make(map[string]Processor, len(processors))}
	for _, p := range processors {
		r.processors[p.DocumentType()] = p
	}
	return r
}

func (r *Registry) Resolve(documentType string) (Processor, bool) {
	p, ok := r.processors[documentType]
	return p, ok
}

func (r *Registry) DocumentTypes() []string {
	types := make([]string, 0, len(r.processors))
	for t := range r.processors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
