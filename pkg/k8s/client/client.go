// Package client provides the Kubernetes API facade used by the watchers and
// the on-demand readers.
//
// The facade narrows client-go to the three calls the gateway needs: list a
// kind, watch a kind from a resume version, and read pod metrics. Two
// implementations exist, a real client built from in-cluster or kubeconfig
// credentials and a mock backed by the fake clientset for development without
// a cluster.
package client

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"kube-liveview/pkg/core/config"
	"kube-liveview/pkg/k8s/resources"
)

// ListResult carries the items of a list call together with the list's
// resource version, which seeds the watch resume cursor.
type ListResult struct {
	Items           []runtime.Object
	ResourceVersion string
}

// Interface is the narrow API surface the gateway consumes.
// Implementations must be safe for concurrent use.
type Interface interface {
	// List returns all objects of a kind across the cluster together with
	// the collection resource version.
	List(ctx context.Context, kind resources.Kind) (*ListResult, error)

	// Watch opens a watch stream for a kind starting at the given resource
	// version. Bookmarks are requested, and the server closes the stream
	// after timeoutSeconds so silent drops self-terminate.
	Watch(ctx context.Context, kind resources.Kind, resourceVersion string, timeoutSeconds int64) (watch.Interface, error)

	// ListPodMetrics reads current pod metrics for a namespace from the
	// metrics.k8s.io API.
	ListPodMetrics(ctx context.Context, namespace string) ([]PodMetrics, error)

	// GetPodMetrics reads the current metrics sample for a single pod.
	GetPodMetrics(ctx context.Context, namespace, pod string) (*PodMetrics, error)
}

// Client implements Interface against a real or fake clientset.
type Client struct {
	clientset     kubernetes.Interface
	dynamicClient dynamic.Interface
}

var _ Interface = (*Client)(nil)

// New creates a client according to the configured mode.
func New(cfg config.KubeConfig) (*Client, error) {
	switch cfg.Mode {
	case config.KubeModeMock:
		return NewMock()
	case config.KubeModeInCluster, config.KubeModeKubeconfig:
		// Handled below.
	default:
		return nil, &ClientError{
			Operation: "create client",
			Err:       fmt.Errorf("unknown mode %q", cfg.Mode),
		}
	}

	var restConfig *rest.Config
	var err error

	if cfg.Mode == config.KubeModeKubeconfig {
		restConfig, err = clientcmd.BuildConfigFromFlags("", cfg.KubeconfigPath)
		if err != nil {
			return nil, &ClientError{Operation: "build kubeconfig", Err: err}
		}
	} else {
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, &ClientError{Operation: "get in-cluster config", Err: err}
		}
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, &ClientError{Operation: "create clientset", Err: err}
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, &ClientError{Operation: "create dynamic client", Err: err}
	}

	return NewFromClientset(clientset, dynamicClient), nil
}

// NewFromClientset wraps existing clients. Used by the mock constructor and
// by tests that inject fake clientsets directly.
func NewFromClientset(clientset kubernetes.Interface, dynamicClient dynamic.Interface) *Client {
	return &Client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
	}
}

// Clientset returns the underlying Kubernetes clientset.
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// List implements Interface.
func (c *Client) List(ctx context.Context, kind resources.Kind) (*ListResult, error) {
	opts := metav1.ListOptions{}

	result := &ListResult{}
	switch kind {
	case resources.KindNamespace:
		list, err := c.clientset.CoreV1().Namespaces().List(ctx, opts)
		if err != nil {
			return nil, &ClientError{Operation: "list namespaces", Err: err}
		}
		result.ResourceVersion = list.ResourceVersion
		for i := range list.Items {
			result.Items = append(result.Items, &list.Items[i])
		}

	case resources.KindDeployment:
		list, err := c.clientset.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, opts)
		if err != nil {
			return nil, &ClientError{Operation: "list deployments", Err: err}
		}
		result.ResourceVersion = list.ResourceVersion
		for i := range list.Items {
			result.Items = append(result.Items, &list.Items[i])
		}

	case resources.KindStatefulSet:
		list, err := c.clientset.AppsV1().StatefulSets(metav1.NamespaceAll).List(ctx, opts)
		if err != nil {
			return nil, &ClientError{Operation: "list statefulsets", Err: err}
		}
		result.ResourceVersion = list.ResourceVersion
		for i := range list.Items {
			result.Items = append(result.Items, &list.Items[i])
		}

	case resources.KindPod:
		list, err := c.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, opts)
		if err != nil {
			return nil, &ClientError{Operation: "list pods", Err: err}
		}
		result.ResourceVersion = list.ResourceVersion
		for i := range list.Items {
			result.Items = append(result.Items, &list.Items[i])
		}

	default:
		return nil, &ClientError{
			Operation: "list",
			Err:       fmt.Errorf("unknown kind %q", kind),
		}
	}

	return result, nil
}

// Watch implements Interface.
func (c *Client) Watch(ctx context.Context, kind resources.Kind, resourceVersion string, timeoutSeconds int64) (watch.Interface, error) {
	opts := metav1.ListOptions{
		ResourceVersion:     resourceVersion,
		AllowWatchBookmarks: true,
	}
	if timeoutSeconds > 0 {
		opts.TimeoutSeconds = &timeoutSeconds
	}

	var (
		w   watch.Interface
		err error
	)
	switch kind {
	case resources.KindNamespace:
		w, err = c.clientset.CoreV1().Namespaces().Watch(ctx, opts)
	case resources.KindDeployment:
		w, err = c.clientset.AppsV1().Deployments(metav1.NamespaceAll).Watch(ctx, opts)
	case resources.KindStatefulSet:
		w, err = c.clientset.AppsV1().StatefulSets(metav1.NamespaceAll).Watch(ctx, opts)
	case resources.KindPod:
		w, err = c.clientset.CoreV1().Pods(metav1.NamespaceAll).Watch(ctx, opts)
	default:
		return nil, &ClientError{
			Operation: "watch",
			Err:       fmt.Errorf("unknown kind %q", kind),
		}
	}

	if err != nil {
		return nil, &ClientError{
			Operation: fmt.Sprintf("watch %s", kind.WireName()),
			Err:       err,
		}
	}
	return w, nil
}
