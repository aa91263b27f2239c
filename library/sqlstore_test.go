package library

import (
	"path/filepath"
	"reflect"
	"testing"
)

func tempSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewSQLStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreEmptyLoad(t *testing.T) {
	store := tempSQLStore(t)
	snap, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Books) != 0 || len(snap.Users) != 0 || len(snap.Reservations) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := tempSQLStore(t)

	in := &Snapshot{
		Books: []Book{
			{Title: "1984", Author: "George Orwell", Genre: "Dystopian", Available: false},
			{Title: "Dune", Author: "Frank Herbert", Available: true},
		},
		Users: []User{
			{Name: "Alice", BorrowedBooks: []string{}},
			{Name: "Bob", BorrowedBooks: []string{"1984"}},
		},
		Reservations: []Reservation{
			{UserName: "Alice", BookTitle: "1984"},
		},
	}

	if err := store.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestSQLStoreSaveOverwrites(t *testing.T) {
	store := tempSQLStore(t)

	first := &Snapshot{
		Books: []Book{{Title: "Old Book", Author: "Old Author", Available: true}},
		Users: []User{{Name: "Alice", BorrowedBooks: []string{}}},
	}
	if err := store.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := &Snapshot{
		Books: []Book{
			{Title: "New Book", Author: "New Author", Available: true},
			{Title: "Another Book", Author: "New Author", Available: true},
		},
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Books) != 2 || out.Books[0].Title != "New Book" {
		t.Fatalf("expected second snapshot, got %+v", out.Books)
	}
	if len(out.Users) != 0 {
		t.Fatalf("expected users cleared, got %+v", out.Users)
	}
}

// The engine seeds and persists through SQLite exactly as it does through
// the flat file.
func TestSQLStoreWithEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.db")

	store, err := NewSQLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	lib, err := New("Test Library", store, nil)
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	if err := lib.BorrowBook("Alice", "Pride and Prejudice"); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	store.Close()

	store, err = NewSQLStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	reloaded, err := New("Test Library", store, nil)
	if err != nil {
		t.Fatalf("reload library: %v", err)
	}

	if got := len(reloaded.ListBooks("", "")); got != 4 {
		t.Fatalf("want 4 books, got %d", got)
	}
	found := reloaded.SearchBooks("Pride and Prejudice")
	if len(found) != 1 || found[0].Available {
		t.Fatalf("expected borrowed book after reload, got %+v", found)
	}
}
