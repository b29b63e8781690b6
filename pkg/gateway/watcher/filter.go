package watcher

import (
	"fmt"
	"regexp"

	"kube-liveview/pkg/k8s/resources"
)

// NamespaceFilter decides which namespaces are observable. It is applied
// before records enter the store, so a filtered object is invisible to every
// subscriber and snapshot.
type NamespaceFilter struct {
	patterns []*regexp.Regexp
}

// NewNamespaceFilter compiles the configured patterns. An empty list, or any
// pattern equal to ".*", admits everything. Patterns match at the start of
// the namespace name.
func NewNamespaceFilter(patterns []string) (*NamespaceFilter, error) {
	f := &NamespaceFilter{}
	for _, p := range patterns {
		if p == ".*" {
			return &NamespaceFilter{}, nil
		}
		re, err := regexp.Compile("^(?:" + p + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid namespace pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// MatchNamespace reports whether a namespace name is observable.
func (f *NamespaceFilter) MatchNamespace(name string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Allows reports whether a record passes the filter. Namespace records are
// matched on their own name, namespaced records on their namespace.
func (f *NamespaceFilter) Allows(rec *resources.Record) bool {
	if rec.Kind == resources.KindNamespace {
		return f.MatchNamespace(rec.Name)
	}
	return f.MatchNamespace(rec.Namespace)
}
