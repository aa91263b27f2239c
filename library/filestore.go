package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireReservation is the persisted reservation row. The legacy document
// calls the flag "available" and sets it to false while the reservation is
// still waiting, so it is inverted into Fulfilled on load.
type wireReservation struct {
	UserName  string `json:"user_name"`
	BookTitle string `json:"book_title"`
	Available bool   `json:"available"`
}

type wireDocument struct {
	Books        []Book            `json:"books"`
	Users        []User            `json:"users"`
	Reservations []wireReservation `json:"reservations,omitempty"`
}

// FileStore persists the library as a single JSON document on disk. This is
// the canonical backend and understands the legacy document layout, where
// the reservations array and per-book genre may be absent entirely.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the document. A missing file yields an empty
// snapshot; a file that cannot be decoded yields an error wrapping
// ErrCorruptData.
func (s *FileStore) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}

	var doc wireDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptData, s.path, err)
	}

	snap := &Snapshot{Books: doc.Books, Users: doc.Users}
	for _, r := range doc.Reservations {
		snap.Reservations = append(snap.Reservations, Reservation{
			UserName:  r.UserName,
			BookTitle: r.BookTitle,
			Fulfilled: r.Available,
		})
	}
	return snap, nil
}

// Save encodes the snapshot and overwrites the document. The write goes to a
// temp file in the same directory first so a crash mid-write cannot leave a
// half document behind.
func (s *FileStore) Save(snap *Snapshot) error {
	doc := wireDocument{Books: snap.Books, Users: snap.Users}
	for _, r := range snap.Reservations {
		doc.Reservations = append(doc.Reservations, wireReservation{
			UserName:  r.UserName,
			BookTitle: r.BookTitle,
			Available: r.Fulfilled,
		})
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode library file: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write library file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace library file: %w", err)
	}
	return nil
}
