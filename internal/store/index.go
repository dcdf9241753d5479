// Package store keeps the in-memory index over generated posts.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"influencer-agent/internal/domain"
)

// DefaultPattern selects structured post records directly under the posts
// directory.
const DefaultPattern = "*.json"

// Index is an append-only, insertion-ordered index of posts keyed by id.
// Entries are never removed while the process runs.
type Index struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
	order   []string
}

func New() *Index {
	return &Index{entries: make(map[string]domain.IndexEntry)}
}

// LoadAll indexes every post record under dir matching pattern and returns how
// many were loaded. Unreadable records are skipped. A missing dir is not an
// error.
func (i *Index) LoadAll(dir, pattern string) (int, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("store: stat %q: %w", dir, err)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("store: glob %q in %q: %w", pattern, dir, err)
	}
	sort.Strings(matches)

	loaded := 0
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		post, err := readPost(path)
		if err != nil {
			slog.Warn("store: skipping unreadable post", "path", path, "err", err)
			continue
		}
		if post.ID == "" {
			slog.Warn("store: skipping post without id", "path", path)
			continue
		}
		i.Add(post, path)
		loaded++
	}
	return loaded, nil
}

func readPost(path string) (domain.Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return domain.Post{}, fmt.Errorf("decode: %w", err)
	}
	return post, nil
}

// Add inserts or replaces the entry for post.ID. A replaced entry keeps its
// original position.
func (i *Index) Add(post domain.Post, location string) domain.IndexEntry {
	entry := post.Entry(location)
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.entries[entry.ID]; !ok {
		i.order = append(i.order, entry.ID)
	}
	i.entries[entry.ID] = entry
	return entry
}

func (i *Index) Get(id string) (domain.IndexEntry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entries[id]
	return e, ok
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.order)
}

func (i *Index) ByPlatform(name string) []domain.IndexEntry {
	return i.filter(func(e domain.IndexEntry) bool {
		return strings.EqualFold(e.Platform, name)
	})
}

func (i *Index) ByNiche(name string) []domain.IndexEntry {
	return i.filter(func(e domain.IndexEntry) bool {
		return strings.EqualFold(e.Niche, name)
	})
}

// Recent returns up to limit entries, newest first. Equal timestamps keep
// insertion order.
func (i *Index) Recent(limit int) []domain.IndexEntry {
	if limit <= 0 {
		return nil
	}
	all := i.filter(func(domain.IndexEntry) bool { return true })
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Timestamp.After(all[b].Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// Search matches query case-insensitively against title, content and
// hashtags.
func (i *Index) Search(query string) []domain.IndexEntry {
	q := strings.ToLower(query)
	return i.filter(func(e domain.IndexEntry) bool {
		if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Content), q) {
			return true
		}
		for _, tag := range e.Hashtags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

func (i *Index) filter(keep func(domain.IndexEntry) bool) []domain.IndexEntry {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []domain.IndexEntry
	for _, id := range i.order {
		if e := i.entries[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}
