package library

// Book holds catalog metadata and current availability. The title doubles as
// the lookup key; the catalog enforces uniqueness on insert.
type Book struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre,omitempty"`
	Available bool   `json:"available"`
}

// User is a registered borrower. BorrowedBooks lists the titles the user
// currently has out, in borrow order. A title appears at most once.
type User struct {
	Name          string   `json:"name"`
	BorrowedBooks []string `json:"borrowed_books"`
}

// Reservation queues a user for a book that is currently borrowed by someone
// else. The oldest active reservation for a title is consumed when the book
// comes back. The persisted form uses the legacy inverted "available" flag;
// see the file store for the translation.
type Reservation struct {
	UserName  string
	BookTitle string
	Fulfilled bool
}

// Active reports whether the reservation is still waiting to be consumed.
func (r Reservation) Active() bool { return !r.Fulfilled }

// Snapshot is the complete persisted state of a library: everything a Store
// loads on startup and writes back after each mutation.
type Snapshot struct {
	Books        []Book
	Users        []User
	Reservations []Reservation
}
