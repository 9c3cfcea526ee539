package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// ErrFormat is returned when input is not a well-formed safetensors payload.
var ErrFormat = errors.New("safetensors: invalid format")

// Store is a decoded safetensors payload with random access by tensor name.
type Store struct {
	raw      []byte
	entries  map[string]storeEntry
	names    []string
	metadata map[string]string
}

type storeEntry struct {
	DType string
	Shape []int64
	Start int
	End   int
}

type headerEntry struct {
	DType   string  `json:"dtype"`
	Shape   []int64 `json:"shape"`
	Offsets [2]int  `json:"data_offsets"`
}

// OpenStore reads and validates the safetensors file at path.
func OpenStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: read %s: %w", path, err)
	}

	return OpenStoreFromBytes(data)
}

// OpenStoreFromBytes validates data and indexes its tensors. Structural
// problems wrap ErrFormat.
func OpenStoreFromBytes(data []byte) (*Store, error) {
	headerEnd, header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	s := &Store{
		raw:     data,
		entries: make(map[string]storeEntry, len(header)),
		names:   make([]string, 0, len(header)),
	}

	for name, rawEntry := range header {
		if name == metadataKey {
			if err := json.Unmarshal(rawEntry, &s.metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrFormat, err)
			}

			continue
		}

		var entry headerEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			return nil, fmt.Errorf("%w: header entry %q: %v", ErrFormat, name, err)
		}

		se, err := validateEntry(name, entry, headerEnd, len(data))
		if err != nil {
			return nil, err
		}

		s.entries[name] = se
		s.names = append(s.names, name)
	}

	if len(s.entries) == 0 {
		return nil, fmt.Errorf("%w: no tensors found", ErrFormat)
	}

	sort.Strings(s.names)

	return s, nil
}

// Names returns tensor names in sorted order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Metadata returns the value stored under key in the __metadata__ section.
func (s *Store) Metadata(key string) (string, bool) {
	v, ok := s.metadata[key]
	return v, ok
}

// Tensor decodes the named tensor.
func (s *Store) Tensor(name string) (*Tensor, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("safetensors: tensor %q not found (available: %s)", name, summarizeNames(s.names))
	}

	raw := s.raw[entry.Start:entry.End]
	t := &Tensor{
		Name:  name,
		DType: entry.DType,
		Shape: append([]int64(nil), entry.Shape...),
	}

	n := (entry.End - entry.Start) / elemBytes(entry.DType)

	switch entry.DType {
	case DTypeF32:
		t.F32 = make([]float32, n)
		for i := range t.F32 {
			t.F32[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
	case DTypeI64:
		t.I64 = make([]int64, n)
		for i := range t.I64 {
			t.I64[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	}

	return t, nil
}

// TensorOf decodes the named tensor and checks its dtype and rank.
func (s *Store) TensorOf(name, dtype string, rank int) (*Tensor, error) {
	t, err := s.Tensor(name)
	if err != nil {
		return nil, err
	}

	if t.DType != dtype || len(t.Shape) != rank {
		return nil, fmt.Errorf("%w: tensor %q is %s rank %d, want %s rank %d",
			ErrFormat, name, t.DType, len(t.Shape), dtype, rank)
	}

	return t, nil
}

func (s *Store) Close() {
	s.raw = nil
	s.entries = nil
	s.names = nil
}

func decodeHeader(data []byte) (int, map[string]json.RawMessage, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("%w: file too short (%d bytes)", ErrFormat, len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return 0, nil, fmt.Errorf("%w: header length %d exceeds file size %d", ErrFormat, headerLen, len(data))
	}

	headerEnd := 8 + int(headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:headerEnd], &header); err != nil {
		return 0, nil, fmt.Errorf("%w: parse header: %v", ErrFormat, err)
	}

	return headerEnd, header, nil
}

func validateEntry(name string, entry headerEntry, headerEnd, size int) (storeEntry, error) {
	dtype := strings.ToUpper(entry.DType)
	if elemBytes(dtype) == 0 {
		return storeEntry{}, fmt.Errorf("%w: tensor %q has unsupported dtype %q", ErrFormat, name, entry.DType)
	}

	elemCount, err := shapeElementCount(entry.Shape)
	if err != nil {
		return storeEntry{}, fmt.Errorf("%w: tensor %q: %v", ErrFormat, name, err)
	}

	start := headerEnd + entry.Offsets[0]
	end := headerEnd + entry.Offsets[1]

	if entry.Offsets[0] < 0 || end < start || end > size {
		return storeEntry{}, fmt.Errorf("%w: tensor %q data [%d:%d] exceeds file size %d", ErrFormat, name, start, end, size)
	}

	if int64(end-start) != elemCount*int64(elemBytes(dtype)) {
		return storeEntry{}, fmt.Errorf("%w: tensor %q shape %v needs %d bytes but data has %d",
			ErrFormat, name, entry.Shape, elemCount*int64(elemBytes(dtype)), end-start)
	}

	return storeEntry{DType: dtype, Shape: entry.Shape, Start: start, End: end}, nil
}

func shapeElementCount(shape []int64) (int64, error) {
	total := int64(1)

	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d", d)
		}

		if d == 0 {
			return 0, nil
		}

		if total > math.MaxInt64/d {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		total *= d
	}

	return total, nil
}

func elemBytes(dtype string) int {
	switch dtype {
	case DTypeF32:
		return 4
	case DTypeI64:
		return 8
	default:
		return 0
	}
}

func summarizeNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}

	const maxNames = 8
	if len(names) <= maxNames {
		return strings.Join(names, ", ")
	}

	return strings.Join(names[:maxNames], ", ") + ", ..."
}
