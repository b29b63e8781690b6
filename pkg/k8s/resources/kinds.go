// Package resources defines the normalized resource model shared by the
// watchers, the state store, and the session layer.
//
// Raw API objects are flattened into Record values as soon as they arrive.
// Everything downstream of the watcher operates on Records only, so no
// client-go types leak past this package boundary.
package resources

import "fmt"

// Kind identifies a watched resource kind. The set is closed.
type Kind string

const (
	KindNamespace   Kind = "namespace"
	KindDeployment  Kind = "deployment"
	KindStatefulSet Kind = "stateful_set"
	KindPod         Kind = "pod"
)

// Kinds lists all watched kinds in watcher start order. Namespaces come
// first so the namespace filter has data before workload records arrive.
func Kinds() []Kind {
	return []Kind{KindNamespace, KindDeployment, KindStatefulSet, KindPod}
}

// wireNames maps plural protocol names to kinds. Clients subscribe with the
// plural form.
var wireNames = map[string]Kind{
	"namespaces":   KindNamespace,
	"deployments":  KindDeployment,
	"statefulsets": KindStatefulSet,
	"pods":         KindPod,
}

// ParseKind resolves a protocol resource type name to a Kind.
// Both the plural wire name ("deployments") and the canonical kind name
// ("deployment") are accepted.
func ParseKind(name string) (Kind, error) {
	if kind, ok := wireNames[name]; ok {
		return kind, nil
	}
	switch Kind(name) {
	case KindNamespace, KindDeployment, KindStatefulSet, KindPod:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unknown resource type %q", name)
}

// WireName returns the plural protocol name for a kind.
func (k Kind) WireName() string {
	switch k {
	case KindNamespace:
		return "namespaces"
	case KindDeployment:
		return "deployments"
	case KindStatefulSet:
		return "statefulsets"
	case KindPod:
		return "pods"
	}
	return string(k)
}

// Namespaced reports whether objects of this kind live inside a namespace.
func (k Kind) Namespaced() bool {
	return k != KindNamespace
}
