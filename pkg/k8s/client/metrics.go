package client

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// podMetricsGVR addresses the metrics server's pod metrics collection. The
// metrics API has no typed client in the main clientset, so reads go through
// the dynamic client.
var podMetricsGVR = schema.GroupVersionResource{
	Group:    "metrics.k8s.io",
	Version:  "v1beta1",
	Resource: "pods",
}

// PodMetrics is the normalized metrics sample for one pod.
type PodMetrics struct {
	Name       string             `json:"name"`
	Namespace  string             `json:"namespace"`
	Timestamp  string             `json:"timestamp,omitempty"`
	Containers []ContainerMetrics `json:"containers"`
}

// ContainerMetrics is the usage sample for one container.
type ContainerMetrics struct {
	Name  string        `json:"name"`
	Usage ResourceUsage `json:"resource_usage"`
}

// ResourceUsage carries raw API quantities alongside values converted to the
// units the dashboard displays.
type ResourceUsage struct {
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`

	// CPUMillicores is the CPU usage in millicores, or -1 if the raw value
	// did not parse.
	CPUMillicores int64 `json:"cpu_millicores"`

	// MemoryMB is the memory usage in mebibytes, or -1 if the raw value did
	// not parse.
	MemoryMB float64 `json:"memory_mb"`
}

// ListPodMetrics implements Interface.
func (c *Client) ListPodMetrics(ctx context.Context, namespace string) ([]PodMetrics, error) {
	if c.dynamicClient == nil {
		return nil, &ClientError{
			Operation: "list pod metrics",
			Err:       fmt.Errorf("no dynamic client configured"),
		}
	}

	list, err := c.dynamicClient.Resource(podMetricsGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &ClientError{
			Operation: fmt.Sprintf("list pod metrics in namespace %s", namespace),
			Err:       err,
		}
	}

	metrics := make([]PodMetrics, 0, len(list.Items))
	for _, item := range list.Items {
		metrics = append(metrics, podMetricsFromUnstructured(&item))
	}
	return metrics, nil
}

// GetPodMetrics implements Interface.
func (c *Client) GetPodMetrics(ctx context.Context, namespace, pod string) (*PodMetrics, error) {
	if c.dynamicClient == nil {
		return nil, &ClientError{
			Operation: "get pod metrics",
			Err:       fmt.Errorf("no dynamic client configured"),
		}
	}

	obj, err := c.dynamicClient.Resource(podMetricsGVR).Namespace(namespace).Get(ctx, pod, metav1.GetOptions{})
	if err != nil {
		return nil, &ClientError{
			Operation: fmt.Sprintf("get pod metrics for %s/%s", namespace, pod),
			Err:       err,
		}
	}

	pm := podMetricsFromUnstructured(obj)
	return &pm, nil
}

// podMetricsFromUnstructured flattens one metrics.k8s.io PodMetrics object.
// Missing or malformed fields degrade to zero values rather than failing the
// whole list.
func podMetricsFromUnstructured(obj *unstructured.Unstructured) PodMetrics {
	pm := PodMetrics{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
	}

	if ts, ok, _ := unstructured.NestedString(obj.Object, "timestamp"); ok {
		pm.Timestamp = ts
	}

	containers, ok, _ := unstructured.NestedSlice(obj.Object, "containers")
	if !ok {
		return pm
	}

	for _, raw := range containers {
		container, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		cm := ContainerMetrics{}
		if name, ok, _ := unstructured.NestedString(container, "name"); ok {
			cm.Name = name
		}
		if cpu, ok, _ := unstructured.NestedString(container, "usage", "cpu"); ok {
			cm.Usage.CPU = cpu
			cm.Usage.CPUMillicores = cpuMillicores(cpu)
		}
		if memory, ok, _ := unstructured.NestedString(container, "usage", "memory"); ok {
			cm.Usage.Memory = memory
			cm.Usage.MemoryMB = memoryMB(memory)
		}

		pm.Containers = append(pm.Containers, cm)
	}
	return pm
}

// cpuMillicores converts an API CPU quantity ("250m", "2", "1500000n") to
// millicores. Returns -1 when the quantity does not parse.
func cpuMillicores(raw string) int64 {
	q, err := resource.ParseQuantity(raw)
	if err != nil {
		return -1
	}
	return q.MilliValue()
}

// memoryMB converts an API memory quantity ("128Mi", "1Gi", "524288Ki") to
// mebibytes. Returns -1 when the quantity does not parse.
func memoryMB(raw string) float64 {
	q, err := resource.ParseQuantity(raw)
	if err != nil {
		return -1
	}
	return float64(q.Value()) / (1024 * 1024)
}
