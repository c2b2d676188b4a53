// Package favorites manages the saved-peers list persisted alongside the
// other config files.
package favorites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
)

// Favorite is one saved peer.
type Favorite struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	Port           int        `json:"port"`
	LastResolvedIP string     `json:"last_resolved_ip,omitempty"`
	LastUsed       *time.Time `json:"last_used,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Store reads and writes favorites.json.
type Store struct {
	path string
	log  *logging.Logger
	mu   sync.Mutex
}

// NewStore builds a store over path.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{path: path, log: log}
}

// List returns all favorites, most recently used first.
func (s *Store) List() ([]Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs, err := s.load()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(favs, func(a, b Favorite) int {
		switch {
		case a.LastUsed == nil && b.LastUsed == nil:
			return 0
		case a.LastUsed == nil:
			return 1
		case b.LastUsed == nil:
			return -1
		default:
			return b.LastUsed.Compare(*a.LastUsed)
		}
	})
	return favs, nil
}

// Add saves a new favorite and returns it with its generated id.
func (s *Store) Add(name, address string, port int) (Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load()
	if err != nil {
		return Favorite{}, err
	}
	for _, f := range favs {
		if f.Address == address && f.Port == port {
			return Favorite{}, fmt.Errorf("favorite for %s:%d already exists", address, port)
		}
	}
	fav := Favorite{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   address,
		Port:      port,
		CreatedAt: time.Now(),
	}
	favs = append(favs, fav)
	if err := s.save(favs); err != nil {
		return Favorite{}, err
	}
	return fav, nil
}

// Remove deletes a favorite by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load()
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(favs, func(f Favorite) bool { return f.ID == id })
	if len(next) == len(favs) {
		return fmt.Errorf("no favorite with id %s", id)
	}
	return s.save(next)
}

// Touch stamps a favorite as just used.
func (s *Store) Touch(id string) error {
	return s.update(id, func(f *Favorite) {
		now := time.Now()
		f.LastUsed = &now
	})
}

// Find looks a favorite up by name (case-insensitive) or by address.
func (s *Store) Find(query string) (Favorite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Msg("favorites unreadable")
		return Favorite{}, false
	}
	for _, f := range favs {
		if strings.EqualFold(f.Name, query) || f.Address == query {
			return f, true
		}
	}
	return Favorite{}, false
}

// Use resolves a send target through the favorites list. A query matching
// a favorite's name or address returns that favorite with its last_used
// stamped; no match just means the target was not a favorite.
func (s *Store) Use(query string) (Favorite, bool) {
	fav, ok := s.Find(query)
	if !ok {
		return Favorite{}, false
	}
	if err := s.Touch(fav.ID); err != nil {
		s.log.Warn().Err(err).Str("favorite", fav.Name).Msg("favorite use stamp failed")
	}
	return fav, true
}

// UpdateResolvedIP caches the last address a favorite resolved to. The
// favorite is matched by its stored address or hostname; no match is not
// an error, the input simply was not a favorite.
func (s *Store) UpdateResolvedIP(address, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for i := range favs {
		if favs[i].Address == address && favs[i].LastResolvedIP != ip {
			favs[i].LastResolvedIP = ip
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(favs)
}

func (s *Store) update(id string, fn func(*Favorite)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load()
	if err != nil {
		return err
	}
	for i := range favs {
		if favs[i].ID == id {
			fn(&favs[i])
			return s.save(favs)
		}
	}
	return fmt.Errorf("no favorite with id %s", id)
}

func (s *Store) load() ([]Favorite, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading favorites: %w", err)
	}
	var favs []Favorite
	if err := json.Unmarshal(data, &favs); err != nil {
		return nil, fmt.Errorf("parsing favorites: %w", err)
	}
	return favs, nil
}

func (s *Store) save(favs []Favorite) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating favorites dir: %w", err)
	}
	data, err := json.MarshalIndent(favs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding favorites: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing favorites: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing favorites: %w", err)
	}
	return nil
}
