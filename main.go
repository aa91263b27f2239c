package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"library-catalog/library"
)

// session carries the presentation-layer state that the original kept in
// process-wide globals: who is acting, and whether admin commands are
// unlocked. The engine itself never sees it.
type session struct {
	currentUser string
	isAdmin     bool
}

var (
	cfgFile string
	asUser  string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Manage a small library catalog: books, users, borrowing and reservations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default librarian.yaml in the working directory)")
	root.PersistentFlags().StringVarP(&asUser, "user", "u", "", "user to act as for borrow/return/reserve commands")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info-level logging")

	root.AddCommand(
		newAddBookCmd(),
		newRegisterUserCmd(),
		newBorrowCmd(),
		newReturnCmd(),
		newReserveCmd(),
		newCancelReservationCmd(),
		newSearchCmd(),
		newSearchUsersCmd(),
		newListBooksCmd(),
		newListUsersCmd(),
		newReservationsCmd(),
		newShellCmd(),
	)
	return root
}

// openLibrary wires config, logger and store together and loads the engine.
// The returned cleanup must run before exit.
func openLibrary() (*library.Library, func(), error) {
	cfg, err := library.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := cfg.OpenStore()
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		if closer, ok := store.(io.Closer); ok {
			closer.Close()
		}
		logger.Sync()
	}

	lib, err := library.New(cfg.Name, store, logger.Sugar())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return lib, cleanup, nil
}

func requireUser() (string, error) {
	if asUser == "" {
		return "", errors.New("no user selected, pass --user")
	}
	return asUser, nil
}

func newAddBookCmd() *cobra.Command {
	var genre string
	cmd := &cobra.Command{
		Use:   "add-book TITLE AUTHOR",
		Short: "Add a new book to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := lib.AddBook(args[0], args[1], genre); err != nil {
				return err
			}
			fmt.Printf("Book '%s' by %s added.\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "genre of the book")
	return cmd
}

func newRegisterUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-user NAME",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := lib.AddUser(args[0]); err != nil {
				return err
			}
			fmt.Printf("User '%s' registered.\n", args[0])
			return nil
		},
	}
}

func newBorrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow TITLE",
		Short: "Borrow a book as the selected user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := lib.BorrowBook(user, args[0]); err != nil {
				return err
			}
			fmt.Printf("'%s' borrowed by %s.\n", args[0], user)
			return nil
		},
	}
}

func newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return TITLE",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			next, err := lib.ReturnBook(user, args[0])
			if err != nil {
				return err
			}
			if next != "" {
				fmt.Printf("'%s' returned by %s. '%s' has a reservation.\n", args[0], user, next)
			} else {
				fmt.Printf("'%s' returned by %s.\n", args[0], user)
			}
			return nil
		},
	}
}

func newReserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reserve TITLE",
		Short: "Reserve a book that is currently borrowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := lib.ReserveBook(user, args[0]); err != nil {
				return err
			}
			fmt.Printf("'%s' reserved by '%s'.\n", args[0], user)
			return nil
		},
	}
}

func newCancelReservationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-reservation TITLE",
		Short: "Cancel an active reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := lib.CancelReservation(user, args[0]); err != nil {
				return err
			}
			fmt.Printf("Reservation for '%s' cancelled.\n", args[0])
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search KEYWORD",
		Short: "Search books by title, author or genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			books := lib.SearchBooks(args[0])
			if len(books) == 0 {
				fmt.Println("No books found matching your search.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
}

func newSearchUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search-users KEYWORD",
		Short: "Search users by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			users := lib.SearchUsers(args[0])
			if len(users) == 0 {
				fmt.Println("No users found matching your search.")
				return nil
			}
			printUsers(users)
			return nil
		},
	}
}

func newListBooksCmd() *cobra.Command {
	var genre, sortBy string
	cmd := &cobra.Command{
		Use:   "list-books",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			if sortBy != "" && sortBy != library.SortByTitle && sortBy != library.SortByAuthor {
				return fmt.Errorf("unknown sort key %q (want %q or %q)", sortBy, library.SortByTitle, library.SortByAuthor)
			}
			books := lib.ListBooks(genre, sortBy)
			if len(books) == 0 {
				fmt.Println("No books to show based on the current filters.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "only show books of this genre")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by 'title' or 'author'")
	return cmd
}

func newListUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			users := lib.ListUsers()
			if len(users) == 0 {
				fmt.Println("No users are registered.")
				return nil
			}
			printUsers(users)
			return nil
		},
	}
}

func newReservationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reservations",
		Short: "Show the selected user's active reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			printReservations(user, lib.ViewReservations(user))
			return nil
		},
	}
}

func printBooks(books []library.Book) {
	fmt.Printf("%-40s %-25s %-12s %s\n", "Title", "Author", "Status", "Genre")
	fmt.Println(strings.Repeat("-", 90))
	for _, b := range books {
		status := "Available"
		if !b.Available {
			status = "Borrowed"
		}
		genre := b.Genre
		if genre == "" {
			genre = "N/A"
		}
		fmt.Printf("%-40s %-25s %-12s %s\n", truncate(b.Title, 40), truncate(b.Author, 25), status, genre)
	}
}

func printUsers(users []library.User) {
	fmt.Printf("%-25s %s\n", "Name", "Borrowed Books")
	fmt.Println(strings.Repeat("-", 60))
	for _, u := range users {
		borrowed := "None"
		if len(u.BorrowedBooks) > 0 {
			borrowed = strings.Join(u.BorrowedBooks, ", ")
		}
		fmt.Printf("%-25s %s\n", truncate(u.Name, 25), borrowed)
	}
}

func printReservations(user string, reservations []library.Reservation) {
	if len(reservations) == 0 {
		fmt.Println("You have no current reservations.")
		return
	}
	fmt.Printf("Reservations for %s:\n", user)
	for _, r := range reservations {
		fmt.Printf("- %s (Waiting)\n", r.BookTitle)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
