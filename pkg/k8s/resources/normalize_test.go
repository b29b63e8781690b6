package resources

import (
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

func int32Ptr(v int32) *int32 { return &v }

func TestWorkloadStatus(t *testing.T) {
	tests := []struct {
		name     string
		replicas *Replicas
		want     string
	}{
		{"nil replicas", nil, StatusError},
		{"nil desired", &Replicas{Desired: nil, Ready: 2}, StatusError},
		{"scaled to zero", &Replicas{Desired: int32Ptr(0)}, StatusScaledZero},
		{"all ready", &Replicas{Desired: int32Ptr(3), Ready: 3}, StatusHealthy},
		{"partially ready", &Replicas{Desired: int32Ptr(3), Ready: 1}, StatusProgressing},
		{"none ready", &Replicas{Desired: int32Ptr(2), Ready: 0}, StatusProgressing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkloadStatus(tt.replicas); got != tt.want {
				t.Errorf("WorkloadStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPodStatus(t *testing.T) {
	tests := []struct {
		phase string
		want  string
	}{
		{"Running", StatusRunning},
		{"running", StatusRunning},
		{"Succeeded", StatusSucceeded},
		{"Pending", StatusPending},
		{"Failed", StatusFailed},
		{"Terminating", StatusTerminating},
		{"Unknown", StatusError},
		{"", StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			if got := PodStatus(tt.phase); got != tt.want {
				t.Errorf("PodStatus(%q) = %q, want %q", tt.phase, got, tt.want)
			}
		})
	}
}

func TestImageTag(t *testing.T) {
	tests := []struct {
		image string
		want  string
	}{
		{"nginx", "latest"},
		{"nginx:1.25", "1.25"},
		{"registry.example.com:5000/app/api:v2.3.1", "v2.3.1"},
		{"app@sha256", "latest"},
		{"app@sha256:6d59f1d07e", "6d59f1d07e"},
	}

	for _, tt := range tests {
		if got := imageTag(tt.image); got != tt.want {
			t.Errorf("imageTag(%q) = %q, want %q", tt.image, got, tt.want)
		}
	}
}

func TestFromNamespace(t *testing.T) {
	created := metav1.NewTime(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:              "project-app1-staging",
			UID:               types.UID("uid-ns-1"),
			ResourceVersion:   "100",
			CreationTimestamp: created,
			Labels:            map[string]string{"env": "staging"},
		},
		Status: corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}

	rec := FromNamespace(ns)

	if rec.Kind != KindNamespace {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindNamespace)
	}
	if rec.Name != "project-app1-staging" {
		t.Errorf("Name = %q", rec.Name)
	}
	if rec.Namespace != "" {
		t.Errorf("Namespace should be empty for cluster-scoped objects, got %q", rec.Namespace)
	}
	if rec.Phase != "Active" {
		t.Errorf("Phase = %q, want Active", rec.Phase)
	}
	if rec.ResourceVersion != "100" {
		t.Errorf("ResourceVersion = %q", rec.ResourceVersion)
	}
	if rec.CreationTime != "2026-01-15T10:30:00Z" {
		t.Errorf("CreationTime = %q", rec.CreationTime)
	}
	if rec.Labels["env"] != "staging" {
		t.Errorf("Labels = %v", rec.Labels)
	}
}

func TestFromDeployment(t *testing.T) {
	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:            "api",
			Namespace:       "project-app1-staging",
			ResourceVersion: "200",
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: int32Ptr(3),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{Name: "api", Image: "registry.example.com:5000/app/api:v2.3.1"},
						{Name: "sidecar", Image: "envoy:1.29"},
					},
				},
			},
		},
		Status: appsv1.DeploymentStatus{
			ReadyReplicas:     2,
			AvailableReplicas: 2,
			UpdatedReplicas:   3,
		},
	}

	rec := FromDeployment(deploy)

	if rec.Kind != KindDeployment {
		t.Errorf("Kind = %q", rec.Kind)
	}
	if rec.Replicas == nil || rec.Replicas.Desired == nil || *rec.Replicas.Desired != 3 {
		t.Fatalf("Replicas.Desired = %v, want 3", rec.Replicas)
	}
	if rec.Replicas.Ready != 2 || rec.Replicas.Available != 2 || rec.Replicas.Updated != 3 {
		t.Errorf("Replicas = %+v", rec.Replicas)
	}
	if rec.MainContainer == nil {
		t.Fatal("MainContainer is nil")
	}
	if rec.MainContainer.Name != "api" || rec.MainContainer.ImageTag != "v2.3.1" {
		t.Errorf("MainContainer = %+v", rec.MainContainer)
	}
	if rec.Status != StatusProgressing {
		t.Errorf("Status = %q, want %q", rec.Status, StatusProgressing)
	}
}

func TestFromDeployment_NoReplicasNoContainers(t *testing.T) {
	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "bare", Namespace: "default"},
	}

	rec := FromDeployment(deploy)

	if rec.Replicas == nil || rec.Replicas.Desired != nil {
		t.Errorf("Replicas.Desired should be nil, got %+v", rec.Replicas)
	}
	if rec.MainContainer != nil {
		t.Errorf("MainContainer should be nil, got %+v", rec.MainContainer)
	}
	if rec.Status != StatusError {
		t.Errorf("Status = %q, want %q", rec.Status, StatusError)
	}
}

func TestFromStatefulSet_AvailableMirrorsReady(t *testing.T) {
	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "default"},
		Spec: appsv1.StatefulSetSpec{
			Replicas: int32Ptr(2),
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: "postgres", Image: "postgres"}},
				},
			},
		},
		Status: appsv1.StatefulSetStatus{
			ReadyReplicas:   2,
			UpdatedReplicas: 2,
		},
	}

	rec := FromStatefulSet(sts)

	if rec.Kind != KindStatefulSet {
		t.Errorf("Kind = %q", rec.Kind)
	}
	if rec.Replicas.Available != 2 {
		t.Errorf("Available = %d, want ready count 2", rec.Replicas.Available)
	}
	if rec.MainContainer.ImageTag != "latest" {
		t.Errorf("ImageTag = %q, want latest", rec.MainContainer.ImageTag)
	}
	if rec.Status != StatusHealthy {
		t.Errorf("Status = %q, want %q", rec.Status, StatusHealthy)
	}
}

func TestFromPod(t *testing.T) {
	started := metav1.NewTime(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "api-7d9f6-abcde",
			Namespace: "project-app1-staging",
			OwnerReferences: []metav1.OwnerReference{
				{Name: "api-7d9f6", Kind: "ReplicaSet", UID: types.UID("uid-rs-1")},
			},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{Name: "api", Image: "app/api:v2.3.1"},
			},
		},
		Status: corev1.PodStatus{
			Phase:     corev1.PodRunning,
			PodIP:     "10.0.1.5",
			HostIP:    "192.168.10.2",
			StartTime: &started,
		},
	}

	rec := FromPod(pod)

	if rec.Phase != "Running" {
		t.Errorf("Phase = %q", rec.Phase)
	}
	if rec.Status != StatusRunning {
		t.Errorf("Status = %q", rec.Status)
	}
	if len(rec.Containers) != 1 || rec.Containers[0].ImageTag != "v2.3.1" {
		t.Errorf("Containers = %+v", rec.Containers)
	}
	if rec.PodIP != "10.0.1.5" || rec.HostIP != "192.168.10.2" {
		t.Errorf("IPs = %q / %q", rec.PodIP, rec.HostIP)
	}
	if rec.StartedAt != "2026-02-01T08:00:00Z" {
		t.Errorf("StartedAt = %q", rec.StartedAt)
	}
	if len(rec.OwnerReferences) != 1 || rec.OwnerReferences[0].Kind != "ReplicaSet" {
		t.Errorf("OwnerReferences = %+v", rec.OwnerReferences)
	}
}

func TestFromPod_Terminating(t *testing.T) {
	deleted := metav1.Now()
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:              "api-7d9f6-abcde",
			Namespace:         "default",
			DeletionTimestamp: &deleted,
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}

	rec := FromPod(pod)

	if rec.Phase != "Terminating" {
		t.Errorf("Phase = %q, want Terminating", rec.Phase)
	}
	if rec.Status != StatusTerminating {
		t.Errorf("Status = %q, want %q", rec.Status, StatusTerminating)
	}
}

func TestFromPod_EmptyPhase(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "new", Namespace: "default"},
	}

	rec := FromPod(pod)

	if rec.Phase != "Unknown" {
		t.Errorf("Phase = %q, want Unknown", rec.Phase)
	}
	if rec.Status != StatusError {
		t.Errorf("Status = %q, want %q", rec.Status, StatusError)
	}
}

func TestFromObject(t *testing.T) {
	rec, err := FromObject(KindPod, &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "p", Namespace: "default"},
	})
	if err != nil {
		t.Fatalf("FromObject() error = %v", err)
	}
	if rec.Kind != KindPod {
		t.Errorf("Kind = %q", rec.Kind)
	}
}

func TestFromObject_TypeMismatch(t *testing.T) {
	_, err := FromObject(KindDeployment, &corev1.Pod{})
	if err == nil {
		t.Fatal("expected error for mismatched type")
	}
}
