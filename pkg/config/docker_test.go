package config

import "testing"

func TestResolveHostForDocker(t *testing.T) {
	tests := []struct {
		input    string
		inDocker string
	}{
		{"db.example.com", "db.example.com"},
		{"192.168.1.100", "192.168.1.100"},
		{"host.docker.internal", "host.docker.internal"},
		{"localhost", "host.docker.internal"},
		{"127.0.0.1", "host.docker.internal"},
	}

	for _, tt := range tests {
		want := tt.input
		if IsRunningInDocker() {
			want = tt.inDocker
		}
		if got := ResolveHostForDocker(tt.input); got != want {
			t.Errorf("ResolveHostForDocker(%q) = %q, want %q", tt.input, got, want)
		}
	}
}
