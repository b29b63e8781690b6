package resources

// Derived status values for workload records.
const (
	StatusHealthy     = "healthy"
	StatusProgressing = "progressing"
	StatusScaledZero  = "scaled_zero"
	StatusError       = "error"
)

// Derived status values for pod records.
const (
	StatusRunning     = "running"
	StatusSucceeded   = "succeeded"
	StatusPending     = "pending"
	StatusFailed      = "failed"
	StatusTerminating = "terminating"
)

// Record is the normalized form of a watched API object. It is immutable by
// convention: the store hands out deep copies, and consumers never mutate the
// copies they receive.
//
// Kind-specific fields are omitted from JSON when unset, so a namespace record
// serializes without replica or container noise.
type Record struct {
	Kind Kind `json:"-"`

	Name            string            `json:"name"`
	Namespace       string            `json:"namespace,omitempty"`
	Labels          map[string]string `json:"labels,omitempty"`
	ResourceVersion string            `json:"resource_version,omitempty"`
	UID             string            `json:"uid,omitempty"`
	CreationTime    string            `json:"creation_time,omitempty"`

	// Phase is set for namespaces (Active/Terminating) and pods
	// (Running/Succeeded/Pending/Failed/Unknown).
	Phase string `json:"phase,omitempty"`

	// Replicas and MainContainer are set for deployments and stateful sets.
	Replicas      *Replicas  `json:"replicas,omitempty"`
	MainContainer *Container `json:"main_container,omitempty"`

	// Containers, PodIP, HostIP and StartedAt are set for pods.
	Containers []Container `json:"containers,omitempty"`
	PodIP      string      `json:"pod_ip,omitempty"`
	HostIP     string      `json:"host_ip,omitempty"`
	StartedAt  string      `json:"started_at,omitempty"`

	OwnerReferences []OwnerReference `json:"owner_references,omitempty"`

	// Status is derived from the fields above at normalization time and is
	// recomputed on every event, never patched in place.
	Status string `json:"status,omitempty"`
}

// Replicas carries the replica counters of a workload. Desired is a pointer
// because an unset spec.replicas is distinct from an explicit zero: unset
// derives status "error", zero derives "scaled_zero".
type Replicas struct {
	Desired   *int32 `json:"desired"`
	Ready     int32  `json:"ready"`
	Available int32  `json:"available"`
	Updated   int32  `json:"updated"`
}

// Container describes a single container image reference.
type Container struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	ImageTag string `json:"image_tag"`
}

// OwnerReference is the subset of the API owner reference the dashboard needs
// to group pods under their controller.
type OwnerReference struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	UID  string `json:"uid"`
}

// DeepCopy returns a copy sharing no mutable state with the receiver.
func (r *Record) DeepCopy() *Record {
	if r == nil {
		return nil
	}

	out := *r

	if r.Labels != nil {
		out.Labels = make(map[string]string, len(r.Labels))
		for k, v := range r.Labels {
			out.Labels[k] = v
		}
	}

	if r.Replicas != nil {
		replicas := *r.Replicas
		if r.Replicas.Desired != nil {
			desired := *r.Replicas.Desired
			replicas.Desired = &desired
		}
		out.Replicas = &replicas
	}

	if r.MainContainer != nil {
		mc := *r.MainContainer
		out.MainContainer = &mc
	}

	if r.Containers != nil {
		out.Containers = make([]Container, len(r.Containers))
		copy(out.Containers, r.Containers)
	}

	if r.OwnerReferences != nil {
		out.OwnerReferences = make([]OwnerReference, len(r.OwnerReferences))
		copy(out.OwnerReferences, r.OwnerReferences)
	}

	return &out
}
