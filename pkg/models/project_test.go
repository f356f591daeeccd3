package models

import (
	"testing"
)

func TestProject_IsOwnedBy(t *testing.T) {
	p := &Project{OwnerID: "user-1"}

	if !p.IsOwnedBy("user-1") {
		t.Error("owner should own the project")
	}
	if p.IsOwnedBy("user-2") {
		t.Error("other user should not own the project")
	}
	if !p.IsOwnedBy("") {
		t.Error("empty user id is a trusted integration and should pass")
	}
}

func TestJSONBMap_Value(t *testing.T) {
	var nilMap JSONBMap
	v, err := nilMap.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if string(v.([]byte)) != "{}" {
		t.Errorf("nil map should serialize to {}, got %s", v)
	}

	v, err = JSONBMap{"source": "mcp"}.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if string(v.([]byte)) != `{"source":"mcp"}` {
		t.Errorf("unexpected value %s", v)
	}
}

func TestJSONBMap_Scan(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantLen int
		wantErr bool
	}{
		{"nil", nil, 0, false},
		{"bytes", []byte(`{"a":1,"b":"x"}`), 2, false},
		{"string", `{"a":1}`, 1, false},
		{"wrong type", 42, 0, true},
		{"bad json", []byte(`{`), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONBMap
			err := m.Scan(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(m) != tt.wantLen {
				t.Errorf("Scan() len = %d, want %d", len(m), tt.wantLen)
			}
		})
	}
}
