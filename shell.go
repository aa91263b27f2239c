package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"library-catalog/library"
)

// readPassword reads a password with terminal echo disabled.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session against the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := library.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			// Only the hash lives for the rest of the session.
			adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}

			lib, cleanup, err := openLibrary()
			if err != nil {
				return err
			}
			defer cleanup()

			runShell(lib, adminHash, session{currentUser: asUser})
			return nil
		},
	}
}

func runShell(lib *library.Library, adminHash []byte, sess session) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("Welcome to %s!\n", lib.Name)
	fmt.Println("Available commands:")
	fmt.Println("  Catalog: list books, search books, search users, list users")
	fmt.Println("  Lending: borrow, return, reserve, cancel reservation, my reservations")
	fmt.Println("  Session: user, admin")
	fmt.Println("  Admin:   add book, register user")
	fmt.Println("  System:  exit")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.TrimSpace(scanner.Text())

		switch cmd {
		case "add book":
			handleAddBook(scanner, lib, sess)
		case "register user":
			handleRegisterUser(scanner, lib, sess)
		case "borrow":
			handleBorrow(scanner, lib, sess)
		case "return":
			handleReturn(scanner, lib, sess)
		case "reserve":
			handleReserve(scanner, lib, sess)
		case "cancel reservation":
			handleCancelReservation(scanner, lib, sess)
		case "my reservations":
			if sess.currentUser == "" {
				fmt.Println("Please select a user first with 'user'.")
				continue
			}
			printReservations(sess.currentUser, lib.ViewReservations(sess.currentUser))
		case "search books":
			handleSearchBooks(scanner, lib)
		case "search users":
			handleSearchUsers(scanner, lib)
		case "list books":
			handleListBooks(scanner, lib)
		case "list users":
			users := lib.ListUsers()
			if len(users) == 0 {
				fmt.Println("No users are registered.")
				continue
			}
			printUsers(users)
		case "user":
			handleSelectUser(scanner, lib, &sess)
		case "admin":
			handleAdminLogin(adminHash, &sess)
		case "exit":
			fmt.Println("Goodbye!")
			return
		case "":
		default:
			fmt.Println("Unknown command. Type one of the available commands listed above.")
		}
	}
}

func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func handleAdminLogin(adminHash []byte, sess *session) {
	password, err := readPassword("Admin password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if bcrypt.CompareHashAndPassword(adminHash, []byte(password)) != nil {
		sess.isAdmin = false
		fmt.Println("Wrong password.")
		return
	}
	sess.isAdmin = true
	fmt.Println("Admin logged in!")
}

func handleSelectUser(sc *bufio.Scanner, lib *library.Library, sess *session) {
	name, ok := prompt(sc, "User name: ")
	if !ok || name == "" {
		return
	}
	registered := false
	for _, u := range lib.ListUsers() {
		if u.Name == name {
			registered = true
			break
		}
	}
	if !registered {
		fmt.Printf("No user named '%s' is registered.\n", name)
		return
	}
	sess.currentUser = name
	fmt.Printf("Acting as %s.\n", name)
}

func handleAddBook(sc *bufio.Scanner, lib *library.Library, sess session) {
	if !sess.isAdmin {
		fmt.Println("Admin login required. Use 'admin' first.")
		return
	}
	title, ok := prompt(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := prompt(sc, "Author: ")
	if !ok {
		return
	}
	genre, ok := prompt(sc, "Genre (optional): ")
	if !ok {
		return
	}
	if title == "" || author == "" {
		fmt.Println("Please enter both title and author.")
		return
	}
	if err := lib.AddBook(title, author, genre); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Book '%s' by %s added.\n", title, author)
}

func handleRegisterUser(sc *bufio.Scanner, lib *library.Library, sess session) {
	if !sess.isAdmin {
		fmt.Println("Admin login required. Use 'admin' first.")
		return
	}
	name, ok := prompt(sc, "User name: ")
	if !ok {
		return
	}
	if name == "" {
		fmt.Println("Please enter a user name.")
		return
	}
	if err := lib.AddUser(name); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("User '%s' registered.\n", name)
}

func handleBorrow(sc *bufio.Scanner, lib *library.Library, sess session) {
	if sess.currentUser == "" {
		fmt.Println("Please select a user first with 'user'.")
		return
	}
	title, ok := prompt(sc, "Book title to borrow: ")
	if !ok || title == "" {
		fmt.Println("Please enter the book title.")
		return
	}
	if err := lib.BorrowBook(sess.currentUser, title); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("'%s' borrowed by %s.\n", title, sess.currentUser)
}

func handleReturn(sc *bufio.Scanner, lib *library.Library, sess session) {
	if sess.currentUser == "" {
		fmt.Println("Please select a user first with 'user'.")
		return
	}
	title, ok := prompt(sc, "Book title to return: ")
	if !ok || title == "" {
		fmt.Println("Please enter the book title.")
		return
	}
	next, err := lib.ReturnBook(sess.currentUser, title)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if next != "" {
		fmt.Printf("'%s' returned by %s. '%s' has a reservation.\n", title, sess.currentUser, next)
	} else {
		fmt.Printf("'%s' returned by %s.\n", title, sess.currentUser)
	}
}

func handleReserve(sc *bufio.Scanner, lib *library.Library, sess session) {
	if sess.currentUser == "" {
		fmt.Println("Please select a user first with 'user'.")
		return
	}
	title, ok := prompt(sc, "Book title to reserve: ")
	if !ok || title == "" {
		fmt.Println("Please enter the book title.")
		return
	}
	if err := lib.ReserveBook(sess.currentUser, title); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("'%s' reserved by '%s'.\n", title, sess.currentUser)
}

func handleCancelReservation(sc *bufio.Scanner, lib *library.Library, sess session) {
	if sess.currentUser == "" {
		fmt.Println("Please select a user first with 'user'.")
		return
	}
	title, ok := prompt(sc, "Book title: ")
	if !ok || title == "" {
		fmt.Println("Please enter the book title.")
		return
	}
	if err := lib.CancelReservation(sess.currentUser, title); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Reservation for '%s' cancelled.\n", title)
}

func handleSearchBooks(sc *bufio.Scanner, lib *library.Library) {
	keyword, ok := prompt(sc, "Keyword (title, author, or genre): ")
	if !ok || keyword == "" {
		fmt.Println("Please enter a keyword to search.")
		return
	}
	books := lib.SearchBooks(keyword)
	if len(books) == 0 {
		fmt.Println("No books found matching your search.")
		return
	}
	printBooks(books)
}

func handleSearchUsers(sc *bufio.Scanner, lib *library.Library) {
	keyword, ok := prompt(sc, "Keyword: ")
	if !ok || keyword == "" {
		fmt.Println("Please enter a keyword to search.")
		return
	}
	users := lib.SearchUsers(keyword)
	if len(users) == 0 {
		fmt.Println("No users found matching your search.")
		return
	}
	printUsers(users)
}

func handleListBooks(sc *bufio.Scanner, lib *library.Library) {
	genres := lib.Genres()
	if len(genres) > 0 {
		fmt.Printf("Genres: %s\n", strings.Join(genres, ", "))
	}
	genre, ok := prompt(sc, "Filter by genre (or press Enter for all): ")
	if !ok {
		return
	}
	sortBy, ok := prompt(sc, "Sort by title/author (or press Enter for none): ")
	if !ok {
		return
	}
	if sortBy != "" && sortBy != library.SortByTitle && sortBy != library.SortByAuthor {
		fmt.Printf("Unknown sort key '%s', listing in catalog order.\n", sortBy)
		sortBy = ""
	}
	books := lib.ListBooks(genre, sortBy)
	if len(books) == 0 {
		fmt.Println("No books to show based on the current filters.")
		return
	}
	printBooks(books)
}
