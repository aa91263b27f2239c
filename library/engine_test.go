package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLib(t *testing.T) *Library {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library_data.json")
	lib, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)
	return lib
}

func TestSeedOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	lib, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)

	books := lib.ListBooks("", "")
	require.Len(t, books, 4)
	users := lib.ListUsers()
	require.Len(t, users, 3)

	// "1984" starts borrowed by Bob.
	found := lib.SearchBooks("1984")
	require.Len(t, found, 1)
	assert.False(t, found[0].Available)
	bob := lib.SearchUsers("Bob")
	require.Len(t, bob, 1)
	assert.Equal(t, []string{"1984"}, bob[0].BorrowedBooks)

	// The seed is persisted immediately: a second engine over the same file
	// loads exactly the same state instead of reseeding.
	again, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)
	assert.Equal(t, books, again.ListBooks("", ""))
	assert.Equal(t, users, again.ListUsers())
}

func TestCorruptFileFallsBackToEmptyAndSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{definitely not json"), 0o644))

	lib, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)
	assert.Len(t, lib.ListBooks("", ""), 4)
	assert.Len(t, lib.ListUsers(), 3)
}

func TestAddBookValidation(t *testing.T) {
	lib := testLib(t)

	err := lib.AddBook("Book #1", "Someone", "")
	assert.ErrorIs(t, err, ErrInvalidTitle)
	assert.Len(t, lib.ListBooks("", ""), 4)

	err = lib.AddBook("1984", "George Orwell", "Dystopian")
	assert.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Len(t, lib.ListBooks("", ""), 4)

	require.NoError(t, lib.AddBook("Brave New World", "Aldous Huxley", "Dystopian"))
	assert.Len(t, lib.ListBooks("", ""), 5)
}

func TestAddUserValidation(t *testing.T) {
	lib := testLib(t)

	assert.ErrorIs(t, lib.AddUser("R2D2"), ErrInvalidName)
	assert.ErrorIs(t, lib.AddUser("Bob"), ErrDuplicateUser)
	assert.Len(t, lib.ListUsers(), 3)

	require.NoError(t, lib.AddUser("Diana"))
	assert.Len(t, lib.ListUsers(), 4)
}

func TestBorrowBook(t *testing.T) {
	lib := testLib(t)

	require.NoError(t, lib.BorrowBook("Alice", "Pride and Prejudice"))

	found := lib.SearchBooks("Pride and Prejudice")
	require.Len(t, found, 1)
	assert.False(t, found[0].Available)
	alice := lib.SearchUsers("Alice")
	require.Len(t, alice, 1)
	assert.Equal(t, []string{"Pride and Prejudice"}, alice[0].BorrowedBooks)

	// Second borrow before return fails and changes nothing.
	assert.ErrorIs(t, lib.BorrowBook("Charlie", "Pride and Prejudice"), ErrBookUnavailable)
	charlie := lib.SearchUsers("Charlie")
	require.Len(t, charlie, 1)
	assert.Empty(t, charlie[0].BorrowedBooks)

	assert.ErrorIs(t, lib.BorrowBook("Mallory", "Pride and Prejudice"), ErrUserNotFound)
	assert.ErrorIs(t, lib.BorrowBook("Alice", "No Such Book"), ErrBookNotFound)
}

func TestReturnBook(t *testing.T) {
	lib := testLib(t)

	// Alice never borrowed "1984".
	_, err := lib.ReturnBook("Alice", "1984")
	assert.ErrorIs(t, err, ErrInvalidReturn)
	_, err = lib.ReturnBook("Mallory", "1984")
	assert.ErrorIs(t, err, ErrInvalidReturn)

	next, err := lib.ReturnBook("Bob", "1984")
	require.NoError(t, err)
	assert.Empty(t, next)

	found := lib.SearchBooks("1984")
	require.Len(t, found, 1)
	assert.True(t, found[0].Available)
	bob := lib.SearchUsers("Bob")
	require.Len(t, bob, 1)
	assert.Empty(t, bob[0].BorrowedBooks)
}

func TestReservationFIFO(t *testing.T) {
	lib := testLib(t)

	// "1984" is out to Bob; Alice then Charlie queue up.
	require.NoError(t, lib.ReserveBook("Alice", "1984"))
	require.NoError(t, lib.ReserveBook("Charlie", "1984"))

	next, err := lib.ReturnBook("Bob", "1984")
	require.NoError(t, err)
	assert.Equal(t, "Alice", next)

	// Only Alice's reservation was consumed; the book was not auto-borrowed.
	assert.Empty(t, lib.ViewReservations("Alice"))
	require.Len(t, lib.ViewReservations("Charlie"), 1)
	found := lib.SearchBooks("1984")
	require.Len(t, found, 1)
	assert.True(t, found[0].Available)
}

func TestReserveRules(t *testing.T) {
	lib := testLib(t)

	// Reserving an available book is rejected; borrow it instead.
	assert.ErrorIs(t, lib.ReserveBook("Alice", "Pride and Prejudice"), ErrBookNotReservable)
	assert.ErrorIs(t, lib.ReserveBook("Alice", "No Such Book"), ErrBookNotReservable)
	assert.ErrorIs(t, lib.ReserveBook("Mallory", "1984"), ErrUserNotFound)

	require.NoError(t, lib.ReserveBook("Alice", "1984"))
	assert.ErrorIs(t, lib.ReserveBook("Alice", "1984"), ErrDuplicateReservation)
	assert.Len(t, lib.ViewReservations("Alice"), 1)
}

func TestCancelReservation(t *testing.T) {
	lib := testLib(t)

	require.NoError(t, lib.ReserveBook("Alice", "1984"))
	require.NoError(t, lib.CancelReservation("Alice", "1984"))
	assert.Empty(t, lib.ViewReservations("Alice"))

	assert.ErrorIs(t, lib.CancelReservation("Alice", "1984"), ErrNoReservation)
}

func TestSearchBooks(t *testing.T) {
	lib := testLib(t)

	found := lib.SearchBooks("1984")
	require.Len(t, found, 1)
	assert.Equal(t, "1984", found[0].Title)

	assert.Empty(t, lib.SearchBooks("nonexistent"))

	// Case-insensitive over author and genre too.
	byAuthor := lib.SearchBooks("orwell")
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "1984", byAuthor[0].Title)
	byGenre := lib.SearchBooks("DYSTOPIAN")
	require.Len(t, byGenre, 1)
	assert.Equal(t, "1984", byGenre[0].Title)
}

func TestSearchUsers(t *testing.T) {
	lib := testLib(t)

	found := lib.SearchUsers("ali")
	require.Len(t, found, 1)
	assert.Equal(t, "Alice", found[0].Name)

	assert.Empty(t, lib.SearchUsers("zzz"))
}

func TestListBooksFilterAndSort(t *testing.T) {
	lib := testLib(t)

	romance := lib.ListBooks("Romance", "")
	require.Len(t, romance, 1)
	assert.Equal(t, "Pride and Prejudice", romance[0].Title)

	byTitle := lib.ListBooks("", SortByTitle)
	require.Len(t, byTitle, 4)
	for i := 1; i < len(byTitle); i++ {
		assert.LessOrEqual(t, byTitle[i-1].Title, byTitle[i].Title)
	}

	byAuthor := lib.ListBooks("", SortByAuthor)
	require.Len(t, byAuthor, 4)
	for i := 1; i < len(byAuthor); i++ {
		assert.LessOrEqual(t, byAuthor[i-1].Author, byAuthor[i].Author)
	}

	// Sorting a listing must not reorder the catalog itself.
	inOrder := lib.ListBooks("", "")
	require.Len(t, inOrder, 4)
	assert.Equal(t, "The Hitchhiker's Guide to the Galaxy", inOrder[0].Title)
	assert.Equal(t, "To Kill a Mockingbird", inOrder[3].Title)
}

func TestGenres(t *testing.T) {
	lib := testLib(t)
	assert.Equal(t, []string{"Dystopian", "Fiction", "Romance", "Science Fiction"}, lib.Genres())
}

func TestMutationsArePersistedImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	lib, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)

	require.NoError(t, lib.BorrowBook("Alice", "Pride and Prejudice"))
	require.NoError(t, lib.ReserveBook("Charlie", "Pride and Prejudice"))

	reloaded, err := New("Test Library", NewFileStore(path), nil)
	require.NoError(t, err)

	found := reloaded.SearchBooks("Pride and Prejudice")
	require.Len(t, found, 1)
	assert.False(t, found[0].Available)
	require.Len(t, reloaded.ViewReservations("Charlie"), 1)
	assert.Equal(t, "Pride and Prejudice", reloaded.ViewReservations("Charlie")[0].BookTitle)
}
