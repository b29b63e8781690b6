package resources

import (
	"fmt"
	"strings"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// FromObject normalizes a raw API object of the given kind.
// Returns an error if the object's concrete type does not match the kind,
// which indicates a mis-wired watch stream.
func FromObject(kind Kind, obj runtime.Object) (*Record, error) {
	switch kind {
	case KindNamespace:
		ns, ok := obj.(*corev1.Namespace)
		if !ok {
			return nil, fmt.Errorf("expected *corev1.Namespace, got %T", obj)
		}
		return FromNamespace(ns), nil
	case KindDeployment:
		deploy, ok := obj.(*appsv1.Deployment)
		if !ok {
			return nil, fmt.Errorf("expected *appsv1.Deployment, got %T", obj)
		}
		return FromDeployment(deploy), nil
	case KindStatefulSet:
		sts, ok := obj.(*appsv1.StatefulSet)
		if !ok {
			return nil, fmt.Errorf("expected *appsv1.StatefulSet, got %T", obj)
		}
		return FromStatefulSet(sts), nil
	case KindPod:
		pod, ok := obj.(*corev1.Pod)
		if !ok {
			return nil, fmt.Errorf("expected *corev1.Pod, got %T", obj)
		}
		return FromPod(pod), nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

// FromNamespace normalizes a Namespace object.
func FromNamespace(ns *corev1.Namespace) *Record {
	rec := newRecord(KindNamespace, &ns.ObjectMeta)
	rec.Phase = string(ns.Status.Phase)
	return rec
}

// FromDeployment normalizes a Deployment object.
func FromDeployment(deploy *appsv1.Deployment) *Record {
	rec := newRecord(KindDeployment, &deploy.ObjectMeta)

	rec.Replicas = &Replicas{
		Desired:   copyDesired(deploy.Spec.Replicas),
		Ready:     deploy.Status.ReadyReplicas,
		Available: deploy.Status.AvailableReplicas,
		Updated:   deploy.Status.UpdatedReplicas,
	}
	rec.MainContainer = mainContainer(deploy.Spec.Template.Spec.Containers)
	rec.Status = WorkloadStatus(rec.Replicas)

	return rec
}

// FromStatefulSet normalizes a StatefulSet object. The StatefulSet status has
// no available counter of its own, so available mirrors ready.
func FromStatefulSet(sts *appsv1.StatefulSet) *Record {
	rec := newRecord(KindStatefulSet, &sts.ObjectMeta)

	rec.Replicas = &Replicas{
		Desired:   copyDesired(sts.Spec.Replicas),
		Ready:     sts.Status.ReadyReplicas,
		Available: sts.Status.ReadyReplicas,
		Updated:   sts.Status.UpdatedReplicas,
	}
	rec.MainContainer = mainContainer(sts.Spec.Template.Spec.Containers)
	rec.Status = WorkloadStatus(rec.Replicas)

	return rec
}

// FromPod normalizes a Pod object.
func FromPod(pod *corev1.Pod) *Record {
	rec := newRecord(KindPod, &pod.ObjectMeta)

	rec.Phase = string(pod.Status.Phase)
	if rec.Phase == "" {
		rec.Phase = string(corev1.PodUnknown)
	}
	// The API never reports a Terminating phase; a pod with a deletion
	// timestamp is still Running until its containers exit. Surface it as
	// Terminating so the derived status matches what kubectl shows.
	if pod.DeletionTimestamp != nil {
		rec.Phase = "Terminating"
	}

	if len(pod.Spec.Containers) > 0 {
		rec.Containers = make([]Container, 0, len(pod.Spec.Containers))
		for _, c := range pod.Spec.Containers {
			rec.Containers = append(rec.Containers, Container{
				Name:     c.Name,
				Image:    c.Image,
				ImageTag: imageTag(c.Image),
			})
		}
	}

	rec.PodIP = pod.Status.PodIP
	rec.HostIP = pod.Status.HostIP
	if pod.Status.StartTime != nil {
		rec.StartedAt = formatTime(*pod.Status.StartTime)
	}
	rec.Status = PodStatus(rec.Phase)

	return rec
}

// newRecord fills the fields common to every kind from object metadata.
func newRecord(kind Kind, meta *metav1.ObjectMeta) *Record {
	rec := &Record{
		Kind:            kind,
		Name:            meta.Name,
		Namespace:       meta.Namespace,
		ResourceVersion: meta.ResourceVersion,
		UID:             string(meta.UID),
	}

	if !meta.CreationTimestamp.IsZero() {
		rec.CreationTime = formatTime(meta.CreationTimestamp)
	}

	if len(meta.Labels) > 0 {
		rec.Labels = make(map[string]string, len(meta.Labels))
		for k, v := range meta.Labels {
			rec.Labels[k] = v
		}
	}

	if len(meta.OwnerReferences) > 0 {
		rec.OwnerReferences = make([]OwnerReference, 0, len(meta.OwnerReferences))
		for _, ref := range meta.OwnerReferences {
			rec.OwnerReferences = append(rec.OwnerReferences, OwnerReference{
				Name: ref.Name,
				Kind: ref.Kind,
				UID:  string(ref.UID),
			})
		}
	}

	return rec
}

// WorkloadStatus derives the status of a deployment or stateful set from its
// replica counters.
func WorkloadStatus(replicas *Replicas) string {
	if replicas == nil || replicas.Desired == nil {
		return StatusError
	}
	desired := *replicas.Desired

	switch {
	case desired == 0:
		return StatusScaledZero
	case replicas.Ready == desired:
		return StatusHealthy
	default:
		return StatusProgressing
	}
}

// PodStatus derives the status of a pod from its phase.
func PodStatus(phase string) string {
	switch lower := strings.ToLower(phase); {
	case lower == "running":
		return StatusRunning
	case lower == "succeeded":
		return StatusSucceeded
	case lower == "pending":
		return StatusPending
	case lower == "failed":
		return StatusFailed
	case strings.Contains(lower, "terminating"):
		return StatusTerminating
	default:
		return StatusError
	}
}

// mainContainer picks the first container of a pod template.
func mainContainer(containers []corev1.Container) *Container {
	if len(containers) == 0 {
		return nil
	}
	first := containers[0]
	return &Container{
		Name:     first.Name,
		Image:    first.Image,
		ImageTag: imageTag(first.Image),
	}
}

// imageTag extracts the tag from an image reference. Everything after the
// last colon counts as the tag; an image without a colon is "latest".
func imageTag(image string) string {
	idx := strings.LastIndex(image, ":")
	if idx < 0 {
		return "latest"
	}
	return image[idx+1:]
}

// copyDesired copies the desired replica pointer so records do not alias the
// API object.
func copyDesired(desired *int32) *int32 {
	if desired == nil {
		return nil
	}
	v := *desired
	return &v
}

// formatTime renders an API timestamp as RFC 3339 in UTC.
func formatTime(t metav1.Time) string {
	return t.UTC().Format(time.RFC3339)
}
