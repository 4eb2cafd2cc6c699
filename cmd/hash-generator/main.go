// Command hash-generator prints bcrypt hashes for seeding users directly
// into the database, e.g. an initial ADMIN account.
//
// Usage:
//
//	hash-generator [-cost 10] password [password...]
//	echo password | hash-generator
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tasksphere/shareme-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor (4-31)")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		var err error
		passwords, err = readLines(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read passwords: %v\n", err)
			os.Exit(1)
		}
	}

	if err := hashPasswords(os.Stdout, passwords, *cost); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// hashPasswords writes one "password: hash" block per input. It stops at
// the first password the signup rules would reject.
func hashPasswords(w io.Writer, passwords []string, cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	if len(passwords) == 0 {
		return fmt.Errorf("no passwords given")
	}

	for _, password := range passwords {
		if problem := domain.PasswordProblem(password); problem != "" {
			return fmt.Errorf("password %q %s", password, problem)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return fmt.Errorf("error generating hash for %q: %w", password, err)
		}
		if _, err := fmt.Fprintf(w, "Password: %s\nHash: %s\n\n", password, hash); err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
