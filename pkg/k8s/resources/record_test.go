package resources

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"namespaces", KindNamespace, false},
		{"deployments", KindDeployment, false},
		{"statefulsets", KindStatefulSet, false},
		{"pods", KindPod, false},
		{"pod", KindPod, false},
		{"stateful_set", KindStatefulSet, false},
		{"ingresses", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKindWireName_RoundTrip(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseKind(kind.WireName())
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", kind.WireName(), err)
			continue
		}
		if parsed != kind {
			t.Errorf("round trip %q -> %q", kind, parsed)
		}
	}
}

func TestRecordDeepCopy_Isolation(t *testing.T) {
	rec := &Record{
		Kind:      KindDeployment,
		Name:      "api",
		Namespace: "default",
		Labels:    map[string]string{"app": "api"},
		Replicas: &Replicas{
			Desired: int32Ptr(3),
			Ready:   3,
		},
		MainContainer: &Container{Name: "api", Image: "api:v1", ImageTag: "v1"},
		Containers:    []Container{{Name: "api", Image: "api:v1", ImageTag: "v1"}},
		OwnerReferences: []OwnerReference{
			{Name: "owner", Kind: "ReplicaSet", UID: "u1"},
		},
	}

	cp := rec.DeepCopy()

	// Mutating the copy must not be visible through the original.
	cp.Labels["app"] = "changed"
	*cp.Replicas.Desired = 9
	cp.Replicas.Ready = 0
	cp.MainContainer.ImageTag = "changed"
	cp.Containers[0].Name = "changed"
	cp.OwnerReferences[0].Name = "changed"

	if rec.Labels["app"] != "api" {
		t.Error("labels alias the original")
	}
	if *rec.Replicas.Desired != 3 || rec.Replicas.Ready != 3 {
		t.Error("replicas alias the original")
	}
	if rec.MainContainer.ImageTag != "v1" {
		t.Error("main container aliases the original")
	}
	if rec.Containers[0].Name != "api" {
		t.Error("containers alias the original")
	}
	if rec.OwnerReferences[0].Name != "owner" {
		t.Error("owner references alias the original")
	}
}

func TestRecordDeepCopy_Nil(t *testing.T) {
	var rec *Record
	if rec.DeepCopy() != nil {
		t.Error("DeepCopy of nil should be nil")
	}
}
