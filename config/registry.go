package config

import (
	"errors"
	"fmt"
	"sort"

	"hadoop_monitor/types"
)

var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Registry resolves logical service names to status URLs. It is built once
// at startup and never modified.
type Registry struct {
	endpoints map[string]string
}

func NewRegistry(endpoints map[string]string) *Registry {
	copied := make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		copied[name] = url
	}
	return &Registry{endpoints: copied}
}

func (r *Registry) Resolve(name string) (string, error) {
	url, ok := r.endpoints[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return url, nil
}

// Endpoints returns every registered endpoint ordered by name.
func (r *Registry) Endpoints() []types.Endpoint {
	endpoints := make([]types.Endpoint, 0, len(r.endpoints))
	for name, url := range r.endpoints {
		endpoints = append(endpoints, types.Endpoint{Name: name, URL: url})
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].Name < endpoints[j].Name })
	return endpoints
}
