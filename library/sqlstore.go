package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLStore persists the library document in a SQLite database. The tables
// mirror the flat-file schema one to one; Load and Save still move the whole
// document at once, so either backend can be swapped in behind the engine.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) the SQLite database at dbPath and applies
// the schema.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

func applySchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            position INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL UNIQUE,
            author TEXT NOT NULL,
            genre TEXT,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            position INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE,
            borrowed_books TEXT NOT NULL DEFAULT '[]'
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            position INTEGER PRIMARY KEY AUTOINCREMENT,
            user_name TEXT NOT NULL,
            book_title TEXT NOT NULL,
            fulfilled BOOLEAN NOT NULL DEFAULT 0
        );`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Load reads the whole document. Row order follows insertion order so the
// engine sees the same catalog order the file backend would give it.
func (s *SQLStore) Load() (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := s.db.Query(`SELECT title, author, COALESCE(genre,''), available FROM books ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, fmt.Errorf("%w: scan book: %v", ErrCorruptData, err)
		}
		snap.Books = append(snap.Books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	userRows, err := s.db.Query(`SELECT name, borrowed_books FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var u User
		var borrowed string
		if err := userRows.Scan(&u.Name, &borrowed); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", ErrCorruptData, err)
		}
		if err := json.Unmarshal([]byte(borrowed), &u.BorrowedBooks); err != nil {
			return nil, fmt.Errorf("%w: decode borrowed books for %s: %v", ErrCorruptData, u.Name, err)
		}
		snap.Users = append(snap.Users, u)
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	resRows, err := s.db.Query(`SELECT user_name, book_title, fulfilled FROM reservations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	defer resRows.Close()
	for resRows.Next() {
		var r Reservation
		if err := resRows.Scan(&r.UserName, &r.BookTitle, &r.Fulfilled); err != nil {
			return nil, fmt.Errorf("%w: scan reservation: %v", ErrCorruptData, err)
		}
		snap.Reservations = append(snap.Reservations, r)
	}
	if err := resRows.Err(); err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	return snap, nil
}

// Save replaces the stored document with the snapshot in one transaction.
func (s *SQLStore) Save(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"books", "users", "reservations"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	bookStmt, err := tx.Prepare(`INSERT INTO books(title, author, genre, available) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer bookStmt.Close()
	for _, b := range snap.Books {
		var genre any
		if b.Genre != "" {
			genre = b.Genre
		}
		if _, err := bookStmt.Exec(b.Title, b.Author, genre, b.Available); err != nil {
			return fmt.Errorf("insert book %q: %w", b.Title, err)
		}
	}

	userStmt, err := tx.Prepare(`INSERT INTO users(name, borrowed_books) VALUES(?,?)`)
	if err != nil {
		return err
	}
	defer userStmt.Close()
	for _, u := range snap.Users {
		borrowed := u.BorrowedBooks
		if borrowed == nil {
			borrowed = []string{}
		}
		raw, err := json.Marshal(borrowed)
		if err != nil {
			return fmt.Errorf("encode borrowed books for %s: %w", u.Name, err)
		}
		if _, err := userStmt.Exec(u.Name, string(raw)); err != nil {
			return fmt.Errorf("insert user %q: %w", u.Name, err)
		}
	}

	resStmt, err := tx.Prepare(`INSERT INTO reservations(user_name, book_title, fulfilled) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer resStmt.Close()
	for _, r := range snap.Reservations {
		if _, err := resStmt.Exec(r.UserName, r.BookTitle, r.Fulfilled); err != nil {
			return fmt.Errorf("insert reservation %q/%q: %w", r.UserName, r.BookTitle, err)
		}
	}

	return tx.Commit()
}
