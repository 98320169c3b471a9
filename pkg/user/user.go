// Package user keeps the accounts allowed to use the HTTP interface.
package user

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is one account. Only the bcrypt hash of the password is stored.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type file struct {
	Users []User `json:"users"`
}

// Store is a JSON file of users, loaded once and written back by Save.
type Store struct {
	mu    sync.RWMutex
	path  string
	users map[string]User
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]User)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, u := range f.Users {
		s.users[u.Username] = u
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Save writes the store atomically, creating the parent directory if needed.
func (s *Store) Save() error {
	s.mu.RLock()
	f := file{Users: make([]User, 0, len(s.users))}
	for _, u := range s.users {
		f.Users = append(f.Users, u)
	}
	s.mu.RUnlock()
	slices.SortFunc(f.Users, func(a, b User) int { return cmp.Compare(a.Username, b.Username) })

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Add creates a user. It fails if the name is taken or empty.
func (s *Store) Add(username, password string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return fmt.Errorf("user %s already exists", username)
	}
	s.users[username] = User{Username: username, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	return nil
}

// Remove deletes a user and reports whether it existed.
func (s *Store) Remove(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	delete(s.users, username)
	return ok
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(username, password string) bool {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Len returns the number of users. With zero users the server runs unauthenticated.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// List returns the usernames in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.users))
	for k := range s.users {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
