package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "relative", input: "sqlite://./chronicle.db", expected: "./chronicle.db"},
		{name: "bare relative", input: "sqlite://chronicle.db", expected: "./chronicle.db"},
		{name: "absolute", input: "sqlite:///var/lib/weaver/chronicle.db", expected: "/var/lib/weaver/chronicle.db"},
		{name: "escaped with query", input: "sqlite://my%20games.db?_pragma=busy_timeout(5000)", expected: "./my games.db?_pragma=busy_timeout(5000)"},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("parseDSN(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
