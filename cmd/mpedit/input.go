package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode"
)

// readInput reads the buffer from the single file argument, or from stdin
// when there is none. It also returns a name for the document: the file's
// base name, or "stdin".
func readInput(args []string, stdin io.Reader, hexMode bool) ([]byte, string, error) {
	var data []byte
	var name string
	switch len(args) {
	case 0:
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		name = "stdin"
	case 1:
		var err error
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", args[0], err)
		}
		name = filepath.Base(args[0])
	default:
		return nil, "", fmt.Errorf("expected at most one input file, got %d arguments", len(args))
	}

	if hexMode {
		decoded, err := decodeHexInput(data)
		if err != nil {
			return nil, "", err
		}
		data = decoded
	}
	return data, name, nil
}

// decodeHexInput strips whitespace and decodes hex, so both "81 a1 61 01"
// and "81a16101" work.
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)
	if len(cleaned) == 0 {
		return nil, errors.New("empty input after stripping whitespace from hex")
	}
	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	n, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:n], nil
}

func writeOutput(w io.Writer, path string, data []byte, hexMode bool) error {
	if hexMode {
		data = []byte(hex.EncodeToString(data) + "\n")
	}
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o666)
}
