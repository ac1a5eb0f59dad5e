package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pywhiz/pywhiz/internal/storage/local"
)

const (
	credentialsCollection = "credentials"
	credentialsID         = "session"
)

// CredentialStore persists session cookies between CLI invocations
type CredentialStore interface {
	Load() ([]*http.Cookie, error)
	Save(cookies []*http.Cookie) error
	Clear() error
}

// FileCredentials keeps cookies in the local JSON store
type FileCredentials struct {
	store *local.Store
}

var _ CredentialStore = (*FileCredentials)(nil)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type savedCredentials struct {
	Cookies []savedCookie `json:"cookies"`
	SavedAt time.Time     `json:"saved_at"`
}

// NewFileCredentials stores credentials under dir/credentials
func NewFileCredentials(dir string) (*FileCredentials, error) {
	store, err := local.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("create credential store: %w", err)
	}
	return &FileCredentials{store: store}, nil
}

// Load returns the saved cookies, or none when nothing was saved
func (f *FileCredentials) Load() ([]*http.Cookie, error) {
	var saved savedCredentials
	if err := f.store.Load(credentialsCollection, credentialsID, &saved); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	cookies := make([]*http.Cookie, 0, len(saved.Cookies))
	for _, c := range saved.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// Save replaces the saved cookies
func (f *FileCredentials) Save(cookies []*http.Cookie) error {
	saved := savedCredentials{SavedAt: time.Now().UTC()}
	for _, c := range cookies {
		saved.Cookies = append(saved.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}
	return f.store.Save(credentialsCollection, credentialsID, saved)
}

// Clear deletes the saved cookies
func (f *FileCredentials) Clear() error {
	if err := f.store.Delete(credentialsCollection, credentialsID); err != nil && !errors.Is(err, local.ErrNotFound) {
		return err
	}
	return nil
}
