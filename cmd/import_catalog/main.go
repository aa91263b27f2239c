package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"library-catalog/library"
)

// bookEntry is one row of the import file: a JSON array of book metadata.
type bookEntry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

func main() {
	cfgFile := flag.String("config", "", "config file (default librarian.yaml in the working directory)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: import_catalog [--config FILE] BOOKS_JSON")
		os.Exit(2)
	}
	booksPath := flag.Arg(0)

	raw, err := os.ReadFile(booksPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", booksPath, err)
		os.Exit(1)
	}
	var entries []bookEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", booksPath, err)
		os.Exit(1)
	}

	cfg, err := library.LoadConfig(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	store, err := cfg.OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closer, ok := store.(io.Closer); ok {
			closer.Close()
		}
	}()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	lib, err := library.New(cfg.Name, store, logger.Sugar())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Importing %d books into %s...\n", len(entries), cfg.Name)

	successCount := 0
	errorCount := 0
	for _, e := range entries {
		fmt.Printf("Importing: %s by %s... ", e.Title, e.Author)
		if err := lib.AddBook(e.Title, e.Author, e.Genre); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("SUCCESS")
		successCount++
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
