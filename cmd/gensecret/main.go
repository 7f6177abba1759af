// Prints random secret key suitable for SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	size := fs.IntP("bytes", "n", defaultKeyBytesLen, "Key length in bytes")
	dotenv := fs.Bool("dotenv", false, "Print as .env line")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := generate(*size)
	if err != nil {
		return err
	}

	if *dotenv {
		_, err = fmt.Fprintf(w, "SECRET_KEY=%s\n", key)
	} else {
		_, err = fmt.Fprintln(w, key)
	}
	return err
}

func generate(size int) (string, error) {
	if size < 16 {
		return "", fmt.Errorf("key is too short: %d bytes, at least 16 required", size)
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
