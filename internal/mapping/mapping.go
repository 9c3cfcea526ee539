// Package mapping reads the emoji id to character table that accompanies
// the corpus labels.
package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingFile      = errors.New("mapping: missing file")
	ErrMalformedMapping = errors.New("mapping: malformed line")
)

// Mapping is an id to symbol table that remembers file order.
type Mapping struct {
	ids     []int
	symbols map[int]string
}

// Load reads the mapping file at path.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}

		return nil, fmt.Errorf("mapping: open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads "<id> <symbol>" lines. Blank lines are skipped. A repeated id
// keeps its first position and takes the last symbol.
func Parse(r io.Reader) (*Mapping, error) {
	m := &Mapping{symbols: make(map[int]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields, want 2", ErrMalformedMapping, lineNo, len(fields))
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: id %q is not an integer", ErrMalformedMapping, lineNo, fields[0])
		}

		if _, seen := m.symbols[id]; !seen {
			m.ids = append(m.ids, id)
		}

		m.symbols[id] = fields[1]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mapping: read: %w", err)
	}

	return m, nil
}

// IDs returns ids in file order.
func (m *Mapping) IDs() []int {
	return append([]int(nil), m.ids...)
}

// Symbol returns the symbol for id.
func (m *Mapping) Symbol(id int) (string, bool) {
	s, ok := m.symbols[id]
	return s, ok
}

func (m *Mapping) Len() int {
	return len(m.ids)
}
