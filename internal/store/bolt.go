package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ppiankov/intelbench/internal/model"
)

// ErrNotFound is returned for unknown project ids
var ErrNotFound = errors.New("project not found")

var (
	bucketProjects = []byte("projects")
	bucketVersions = []byte("versions")
)

// BoltStore persists projects as JSON documents in a single bbolt file.
// Overwritten and deleted documents are archived in a per-project bucket
// nested under the versions bucket.
type BoltStore struct {
	db *bbolt.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the store at path
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	opts := &bbolt.Options{
		Timeout:      1 * time.Second,
		FreelistType: bbolt.FreelistArrayType,
	}

	db, err := bbolt.Open(path, 0600, opts)
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketProjects, bucketVersions} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Get loads a project by id
func (s *BoltStore) Get(ctx context.Context, id string) (*model.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var project model.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProjects).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &project)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read project %s: %w", id, err)
	}

	return &project, nil
}

// Put writes a project, archiving any previous document with the same id
func (s *BoltStore) Put(ctx context.Context, project *model.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if project.ID == "" {
		return fmt.Errorf("put project: empty id")
	}

	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProjects)
		if existing := bucket.Get([]byte(project.ID)); existing != nil {
			if err := s.archive(tx, project.ID, existing); err != nil {
				return fmt.Errorf("store version: %w", err)
			}
		}
		return bucket.Put([]byte(project.ID), data)
	})
	if err != nil {
		return fmt.Errorf("write project: %w", err)
	}

	return nil
}

// List returns every stored project ordered by creation time
func (s *BoltStore) List(ctx context.Context) ([]model.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProjects).ForEach(func(k, v []byte) error {
			var p model.Project
			if err := json.Unmarshal(v, &p); err != nil {
				return nil // Skip unreadable documents
			}
			projects = append(projects, p)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].ID < projects[j].ID
		}
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})

	return projects, nil
}

// Delete removes a project. The last document is kept in the versions bucket.
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketProjects)
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		if err := s.archive(tx, id, data); err != nil {
			return err
		}
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete project: %w", err)
	}

	return nil
}

// Versions returns archived documents of a project, newest first. A positive
// limit keeps only the newest limit versions.
func (s *BoltStore) Versions(ctx context.Context, id string, limit int) ([]model.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	versions := make([]model.Project, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		history := tx.Bucket(bucketVersions).Bucket([]byte(id))
		if history == nil {
			return nil
		}

		cursor := history.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(versions) >= limit {
				break
			}
			var p model.Project
			if err := json.Unmarshal(v, &p); err != nil {
				continue
			}
			versions = append(versions, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read versions: %w", err)
	}

	return versions, nil
}

// archive appends data to the project's own bucket under the versions bucket.
// Keys are big-endian sequence numbers so cursor order is chronological.
func (s *BoltStore) archive(tx *bbolt.Tx, id string, data []byte) error {
	history, err := tx.Bucket(bucketVersions).CreateBucketIfNotExists([]byte(id))
	if err != nil {
		return err
	}
	seq, err := history.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	value := append([]byte(nil), data...)
	return history.Put(key, value)
}
