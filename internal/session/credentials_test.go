package session

import (
	"net/http"
	"testing"
)

func TestFileCredentials(t *testing.T) {
	creds, err := NewFileCredentials(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCredentials() error = %v", err)
	}

	cookies, err := creds.Load()
	if err != nil || len(cookies) != 0 {
		t.Fatalf("Load() on empty store = %v, %v", cookies, err)
	}

	err = creds.Save([]*http.Cookie{
		{Name: "access_token", Value: "a"},
		{Name: "refresh_token", Value: "r"},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cookies, err = creds.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cookies) != 2 || cookies[0].Name != "access_token" || cookies[1].Value != "r" {
		t.Errorf("Load() = %v", cookies)
	}

	if err := creds.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := creds.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	if cookies, _ := creds.Load(); len(cookies) != 0 {
		t.Errorf("Load() after Clear = %v", cookies)
	}
}
