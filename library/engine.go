package library

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	titlePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

// Sort keys accepted by ListBooks.
const (
	SortByTitle  = "title"
	SortByAuthor = "author"
)

// Library is the catalog and lending engine. It owns the book, user and
// reservation collections, enforces the state-transition rules between them,
// and writes the full state through its Store after every successful
// mutation. It is not safe for concurrent use; callers wanting multiple
// sessions must serialize access themselves.
type Library struct {
	Name string

	books        []Book
	users        []User
	reservations []Reservation

	store Store
	log   *zap.SugaredLogger
}

// New loads persisted state from store and returns a ready engine. A missing
// document starts the library empty; a corrupt document is logged and
// discarded. If books and users are both empty after loading, the fixed
// sample dataset is installed and persisted immediately.
func New(name string, store Store, log *zap.SugaredLogger) (*Library, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	lib := &Library{Name: name, store: store, log: log}

	snap, err := store.Load()
	switch {
	case err == nil:
		lib.books = snap.Books
		lib.users = snap.Users
		lib.reservations = snap.Reservations
	case isCorrupt(err):
		log.Warnw("discarding corrupt library data, starting empty", "error", err)
	default:
		return nil, fmt.Errorf("load library: %w", err)
	}

	if len(lib.books) == 0 && len(lib.users) == 0 {
		lib.seed()
		if err := lib.save(); err != nil {
			return nil, err
		}
		log.Infow("initial sample data loaded", "library", name)
	}

	return lib, nil
}

// seed installs the fixed sample dataset: four books and three users, with
// "1984" already out to Bob.
func (l *Library) seed() {
	l.books = []Book{
		{Title: "The Hitchhiker's Guide to the Galaxy", Author: "Douglas Adams", Genre: "Science Fiction", Available: true},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", Available: true},
		{Title: "1984", Author: "George Orwell", Genre: "Dystopian", Available: false},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction", Available: true},
	}
	l.users = []User{
		{Name: "Alice"},
		{Name: "Bob", BorrowedBooks: []string{"1984"}},
		{Name: "Charlie"},
	}
	l.reservations = nil
}

func (l *Library) save() error {
	snap := &Snapshot{Books: l.books, Users: l.users, Reservations: l.reservations}
	if err := l.store.Save(snap); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}

func (l *Library) findBook(title string) *Book {
	for i := range l.books {
		if l.books[i].Title == title {
			return &l.books[i]
		}
	}
	return nil
}

func (l *Library) findUser(name string) *User {
	for i := range l.users {
		if l.users[i].Name == name {
			return &l.users[i]
		}
	}
	return nil
}

// AddBook adds a new available book to the catalog. Titles are restricted to
// letters, digits and spaces, and must not collide with an existing title.
func (l *Library) AddBook(title, author, genre string) error {
	if !titlePattern.MatchString(title) {
		return ErrInvalidTitle
	}
	if l.findBook(title) != nil {
		return ErrDuplicateTitle
	}
	l.books = append(l.books, Book{Title: title, Author: author, Genre: genre, Available: true})
	if err := l.save(); err != nil {
		return err
	}
	l.log.Infow("book added", "title", title, "author", author)
	return nil
}

// AddUser registers a new borrower. Names are restricted to letters and
// spaces, and must be unique.
func (l *Library) AddUser(name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	if l.findUser(name) != nil {
		return ErrDuplicateUser
	}
	l.users = append(l.users, User{Name: name})
	if err := l.save(); err != nil {
		return err
	}
	l.log.Infow("user registered", "name", name)
	return nil
}

// BorrowBook checks the titled book out to the named user. The book must
// exist and be available.
func (l *Library) BorrowBook(userName, bookTitle string) error {
	user := l.findUser(userName)
	if user == nil {
		return ErrUserNotFound
	}
	book := l.findBook(bookTitle)
	if book == nil {
		return ErrBookNotFound
	}
	if !book.Available {
		return ErrBookUnavailable
	}

	book.Available = false
	user.BorrowedBooks = append(user.BorrowedBooks, book.Title)
	if err := l.save(); err != nil {
		return err
	}
	l.log.Infow("book borrowed", "title", bookTitle, "user", userName)
	return nil
}

// ReturnBook takes the titled book back from the named user and makes it
// available again. If anyone is waiting on the title, the oldest active
// reservation is consumed and the waiting user's name is returned; that user
// still has to borrow the book explicitly. At most one reservation is
// consumed per return.
func (l *Library) ReturnBook(userName, bookTitle string) (nextInLine string, err error) {
	user := l.findUser(userName)
	if user == nil || !user.holds(bookTitle) {
		return "", ErrInvalidReturn
	}
	book := l.findBook(bookTitle)
	if book == nil {
		return "", ErrInvalidReturn
	}

	book.Available = true
	user.dropBorrowed(bookTitle)

	for i, res := range l.reservations {
		if res.Active() && res.BookTitle == bookTitle {
			nextInLine = res.UserName
			l.reservations = append(l.reservations[:i], l.reservations[i+1:]...)
			break
		}
	}

	if err := l.save(); err != nil {
		return "", err
	}
	l.log.Infow("book returned", "title", bookTitle, "user", userName, "next_in_line", nextInLine)
	return nextInLine, nil
}

// ReserveBook queues the named user for a book that is currently out.
// Reserving an available book is rejected; the caller should borrow it
// instead. A user can hold at most one active reservation per title.
func (l *Library) ReserveBook(userName, bookTitle string) error {
	if l.findUser(userName) == nil {
		return ErrUserNotFound
	}
	book := l.findBook(bookTitle)
	if book == nil || book.Available {
		return ErrBookNotReservable
	}
	if l.findReservation(userName, bookTitle) != nil {
		return ErrDuplicateReservation
	}

	l.reservations = append(l.reservations, Reservation{UserName: userName, BookTitle: bookTitle})
	if err := l.save(); err != nil {
		return err
	}
	l.log.Infow("book reserved", "title", bookTitle, "user", userName)
	return nil
}

// CancelReservation removes the user's active reservation for the title.
func (l *Library) CancelReservation(userName, bookTitle string) error {
	for i, res := range l.reservations {
		if res.Active() && res.UserName == userName && res.BookTitle == bookTitle {
			l.reservations = append(l.reservations[:i], l.reservations[i+1:]...)
			if err := l.save(); err != nil {
				return err
			}
			l.log.Infow("reservation cancelled", "title", bookTitle, "user", userName)
			return nil
		}
	}
	return ErrNoReservation
}

func (l *Library) findReservation(userName, bookTitle string) *Reservation {
	for i := range l.reservations {
		r := &l.reservations[i]
		if r.Active() && r.UserName == userName && r.BookTitle == bookTitle {
			return r
		}
	}
	return nil
}

// SearchBooks matches the keyword case-insensitively against title, author
// and genre. Results keep catalog order; no match yields an empty slice.
func (l *Library) SearchBooks(keyword string) []Book {
	kw := strings.ToLower(keyword)
	var found []Book
	for _, b := range l.books {
		if strings.Contains(strings.ToLower(b.Title), kw) ||
			strings.Contains(strings.ToLower(b.Author), kw) ||
			(b.Genre != "" && strings.Contains(strings.ToLower(b.Genre), kw)) {
			found = append(found, b)
		}
	}
	return found
}

// SearchUsers matches the keyword case-insensitively against user names.
func (l *Library) SearchUsers(keyword string) []User {
	kw := strings.ToLower(keyword)
	var found []User
	for _, u := range l.users {
		if strings.Contains(strings.ToLower(u.Name), kw) {
			found = append(found, u)
		}
	}
	return found
}

// ListBooks returns the catalog, optionally filtered to one genre and sorted
// by SortByTitle or SortByAuthor. With an empty sort key the catalog
// insertion order is kept. The catalog itself is never reordered.
func (l *Library) ListBooks(genreFilter, sortBy string) []Book {
	books := make([]Book, 0, len(l.books))
	for _, b := range l.books {
		if genreFilter == "" || b.Genre == genreFilter {
			books = append(books, b)
		}
	}

	switch sortBy {
	case SortByTitle:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	case SortByAuthor:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Author < books[j].Author })
	}
	return books
}

// Genres returns the sorted distinct non-empty genres in the catalog.
func (l *Library) Genres() []string {
	seen := make(map[string]bool)
	var genres []string
	for _, b := range l.books {
		if b.Genre != "" && !seen[b.Genre] {
			seen[b.Genre] = true
			genres = append(genres, b.Genre)
		}
	}
	sort.Strings(genres)
	return genres
}

// ListUsers returns all registered users in insertion order.
func (l *Library) ListUsers() []User {
	return append([]User(nil), l.users...)
}

// ViewReservations returns the user's active reservations in insertion order.
func (l *Library) ViewReservations(userName string) []Reservation {
	var out []Reservation
	for _, r := range l.reservations {
		if r.Active() && r.UserName == userName {
			out = append(out, r)
		}
	}
	return out
}

func (u *User) holds(title string) bool {
	for _, t := range u.BorrowedBooks {
		if t == title {
			return true
		}
	}
	return false
}

func (u *User) dropBorrowed(title string) {
	for i, t := range u.BorrowedBooks {
		if t == title {
			u.BorrowedBooks = append(u.BorrowedBooks[:i], u.BorrowedBooks[i+1:]...)
			return
		}
	}
}
