package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hay-kot/ralph/internal/core/agent"
)

// AuthCacheFile is the root JSON structure stored on disk.
type AuthCacheFile struct {
	Records []agent.AuthRecord `json:"records"`
}

// AuthCache implements agent.AuthCache using a JSON file for persistence.
type AuthCache struct {
	path string
	mu   sync.RWMutex
}

// NewAuthCache creates a JSON file auth cache at the given path.
func NewAuthCache(path string) *AuthCache {
	return &AuthCache{path: path}
}

// Path returns the cache file location.
func (s *AuthCache) Path() string {
	return s.path
}

// Get returns the record for agentName, if any.
func (s *AuthCache) Get(agentName string) (agent.AuthRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return agent.AuthRecord{}, false, err
	}

	for _, rec := range file.Records {
		if rec.Agent == agentName {
			return rec, true, nil
		}
	}
	return agent.AuthRecord{}, false, nil
}

// Put stores rec, replacing any record for the same agent.
func (s *AuthCache) Put(rec agent.AuthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Records {
		if file.Records[i].Agent == rec.Agent {
			file.Records[i] = rec
			replaced = true
		}
	}
	if !replaced {
		file.Records = append(file.Records, rec)
	}

	return s.save(file)
}

// Clear removes all records.
func (s *AuthCache) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(AuthCacheFile{Records: []agent.AuthRecord{}})
}

// load reads the cache file. A missing or empty file is an empty cache.
func (s *AuthCache) load() (AuthCacheFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return AuthCacheFile{}, nil
		}
		return AuthCacheFile{}, fmt.Errorf("read auth cache: %w", err)
	}

	if len(data) == 0 {
		return AuthCacheFile{}, nil
	}

	var file AuthCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return AuthCacheFile{}, fmt.Errorf("parse auth cache: %w", err)
	}

	return file, nil
}

// save writes the cache file atomically.
func (s *AuthCache) save(file AuthCacheFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
