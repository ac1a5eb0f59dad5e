package domain

import "testing"

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"username", &User{Username: "ada", Email: "ada@example.com"}, "ada"},
		{"email fallback", &User{Email: "ada@example.com"}, "ada@example.com"},
		{"anonymous", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
