package client

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/kubernetes/scheme"
)

// NewMock creates a client backed by the fake clientset, seeded with a small
// fixture cluster. List and watch behave like the real API server, including
// watch events for objects mutated through the fake clientset, so the full
// pipeline runs without cluster access.
func NewMock() (*Client, error) {
	clientset := fake.NewSimpleClientset(mockObjects()...)

	dynamicClient := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
		scheme.Scheme,
		map[schema.GroupVersionResource]string{
			podMetricsGVR: "PodMetricsList",
		},
	)
	// The fake constructor files objects under a GVR pluralized from the
	// kind, which for PodMetrics is not the real resource name. Seed the
	// tracker with the explicit GVR so Get and List find them.
	for _, sample := range mockMetricsObjects() {
		if err := dynamicClient.Tracker().Create(podMetricsGVR, sample, sample.GetNamespace()); err != nil {
			return nil, err
		}
	}

	return NewFromClientset(clientset, dynamicClient), nil
}

func int32Ptr(v int32) *int32 { return &v }

// mockObjects builds the fixture cluster: two project namespaces with a
// deployment, a stateful set and their pods, plus the system namespaces.
func mockObjects() []runtime.Object {
	return []runtime.Object{
		mockNamespace("default", nil),
		mockNamespace("kube-system", nil),
		mockNamespace("project-app1-staging", map[string]string{"env": "staging"}),
		mockNamespace("project-app2-prod", map[string]string{"env": "production"}),

		mockDeployment("api", "project-app1-staging", "registry.example.com:5000/project/api:staging-a1dcf6ff", 2, 2),
		mockDeployment("worker", "project-app1-staging", "registry.example.com:5000/project/worker:staging-a1dcf6ff", 1, 0),
		mockDeployment("api", "project-app2-prod", "registry.example.com:5000/project/api:prod-77e2b0c1", 3, 3),
		mockDeployment("frontend", "project-app2-prod", "registry.example.com:5000/project/frontend:prod-77e2b0c1", 0, 0),

		mockStatefulSet("db", "project-app1-staging", "postgres:16.3", 1, 1),
		mockStatefulSet("redis", "project-app2-prod", "redis:7.2", 2, 1),

		mockPod("api-7d9f6b-x1", "project-app1-staging", "api", "registry.example.com:5000/project/api:staging-a1dcf6ff", corev1.PodRunning),
		mockPod("api-7d9f6b-x2", "project-app1-staging", "api", "registry.example.com:5000/project/api:staging-a1dcf6ff", corev1.PodRunning),
		mockPod("worker-54cc8-q7", "project-app1-staging", "worker", "registry.example.com:5000/project/worker:staging-a1dcf6ff", corev1.PodPending),
		mockPod("db-0", "project-app1-staging", "db", "postgres:16.3", corev1.PodRunning),
		mockPod("api-66f1a-p1", "project-app2-prod", "api", "registry.example.com:5000/project/api:prod-77e2b0c1", corev1.PodRunning),
	}
}

func mockNamespace(name string, labels map[string]string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: labels,
		},
		Status: corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}
}

func mockDeployment(name, namespace, image string, desired, ready int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{"app": name},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(desired),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: name, Image: image}},
				},
			},
		},
		Status: appsv1.DeploymentStatus{
			ReadyReplicas:     ready,
			AvailableReplicas: ready,
			UpdatedReplicas:   desired,
		},
	}
}

func mockStatefulSet(name, namespace, image string, desired, ready int32) *appsv1.StatefulSet {
	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{"app": name},
		},
		Spec: appsv1.StatefulSetSpec{
			Replicas: int32Ptr(desired),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: name, Image: image}},
				},
			},
		},
		Status: appsv1.StatefulSetStatus{
			ReadyReplicas:   ready,
			UpdatedReplicas: ready,
		},
	}
}

func mockPod(name, namespace, app, image string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    map[string]string{"app": app},
			OwnerReferences: []metav1.OwnerReference{
				{Name: app + "-rs", Kind: "ReplicaSet", UID: types.UID("mock-rs-" + app)},
			},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: app, Image: image}},
		},
		Status: corev1.PodStatus{
			Phase:  phase,
			PodIP:  "10.244.0.10",
			HostIP: "192.168.49.2",
		},
	}
}

// mockMetricsObjects builds metrics.k8s.io samples for the running fixture
// pods. The metrics API has no typed scheme entry, so these stay unstructured.
func mockMetricsObjects() []*unstructured.Unstructured {
	sample := func(namespace, pod, container, cpu, memory string) *unstructured.Unstructured {
		return &unstructured.Unstructured{
			Object: map[string]interface{}{
				"apiVersion": "metrics.k8s.io/v1beta1",
				"kind":       "PodMetrics",
				"metadata": map[string]interface{}{
					"name":      pod,
					"namespace": namespace,
				},
				"timestamp": "2026-01-01T00:00:00Z",
				"containers": []interface{}{
					map[string]interface{}{
						"name": container,
						"usage": map[string]interface{}{
							"cpu":    cpu,
							"memory": memory,
						},
					},
				},
			},
		}
	}

	return []*unstructured.Unstructured{
		sample("project-app1-staging", "api-7d9f6b-x1", "api", "120m", "256Mi"),
		sample("project-app1-staging", "api-7d9f6b-x2", "api", "95m", "241Mi"),
		sample("project-app1-staging", "db-0", "db", "310m", "1Gi"),
		sample("project-app2-prod", "api-66f1a-p1", "api", "200m", "512Mi"),
	}
}
