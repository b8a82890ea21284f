// Command admin-key prints a bcrypt hash for the operator key accepted on
// /api/admin routes. Set the hash as HUDDLE_AUTH_ADMIN_KEY_HASH.
//
// With no arguments a random key is generated and printed along with its
// hash. With -stdin the key is read from standard input instead.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const keyBytes = 32

func main() {
	fromStdin := flag.Bool("stdin", false, "read the key from standard input")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *fromStdin, *cost); err != nil {
		fmt.Fprintf(os.Stderr, "admin-key: %v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, fromStdin bool, cost int) error {
	var key string
	if fromStdin {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = strings.TrimSpace(line)
		if key == "" {
			return fmt.Errorf("key is empty")
		}
	} else {
		generated, err := generateKey()
		if err != nil {
			return err
		}
		key = generated
		fmt.Fprintf(out, "Key:  %s\n", key)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}
	fmt.Fprintf(out, "Hash: %s\n", hash)
	return nil
}

func generateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
