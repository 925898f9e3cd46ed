package telemetry

import "testing"

func TestContextSetters(t *testing.T) {
	tc := NewContext()
	tc.SetProperty("boardId", "esp32")
	tc.SetMeasurement("files", 3)

	if tc.Properties["boardId"] != "esp32" {
		t.Errorf("Properties = %v", tc.Properties)
	}
	if tc.Measurements["files"] != 3 {
		t.Errorf("Measurements = %v", tc.Measurements)
	}
}

func TestContextZeroValue(t *testing.T) {
	var tc Context
	tc.SetProperty("a", "b")
	tc.SetMeasurement("n", 1)
	if tc.Properties["a"] != "b" || tc.Measurements["n"] != 1 {
		t.Errorf("zero-value Context did not initialize maps: %+v", tc)
	}
}

func TestContextNilSafe(t *testing.T) {
	var tc *Context
	tc.SetProperty("a", "b")
	tc.SetMeasurement("n", 1)
	if kvs := tc.logKVs(); kvs != nil {
		t.Errorf("nil logKVs = %v, want nil", kvs)
	}
}

func TestContextLogKVsOrdered(t *testing.T) {
	tc := NewContext()
	tc.SetProperty("z", "1")
	tc.SetProperty("a", "2")
	tc.SetMeasurement("m", 4)

	kvs := tc.logKVs()
	want := []string{"prop.a", "prop.z", "measure.m"}
	if len(kvs) != len(want) {
		t.Fatalf("len = %d, want %d", len(kvs), len(want))
	}
	for i, k := range want {
		if kvs[i].Key != k {
			t.Errorf("kvs[%d].Key = %q, want %q", i, kvs[i].Key, k)
		}
	}
}
