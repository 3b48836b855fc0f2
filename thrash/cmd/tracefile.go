package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// A traceFile is one address trace read into memory.
type traceFile struct {
	name      string
	addresses []uint64
}

// ParseTrace reads one address per line. Addresses are decimal or 0x-prefixed
// hexadecimal. Blank lines and everything after a # are ignored.
func ParseTrace(r io.Reader) ([]uint64, error) {
	var addresses []uint64

	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		address, err := parseAddress(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		addresses = append(addresses, address)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}

func parseAddress(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

// readTraceFiles loads every path. "-" reads stdin.
func readTraceFiles(paths []string, stdin io.Reader) ([]traceFile, error) {
	files := make([]traceFile, 0, len(paths))

	for _, path := range paths {
		addresses, err := readTraceFile(path, stdin)
		if err != nil {
			return nil, fmt.Errorf("reading trace %s: %w", path, err)
		}

		files = append(files, traceFile{name: path, addresses: addresses})
	}

	return files, nil
}

func readTraceFile(path string, stdin io.Reader) ([]uint64, error) {
	if path == "-" {
		return ParseTrace(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseTrace(f)
}
