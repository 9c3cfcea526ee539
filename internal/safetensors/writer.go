package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Encode serializes tensors and string metadata into safetensors format.
func Encode(metadata map[string]string, tensors []Tensor) ([]byte, error) {
	if len(tensors) == 0 {
		return nil, errors.New("safetensors: no tensors to encode")
	}

	sorted := make([]Tensor, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	header := make(map[string]any, len(sorted)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var raw []byte

	for _, tensor := range sorted {
		name := strings.TrimSpace(tensor.Name)
		if name == "" || name == metadataKey {
			return nil, fmt.Errorf("safetensors: invalid tensor name %q", tensor.Name)
		}

		if _, exists := header[name]; exists {
			return nil, fmt.Errorf("safetensors: duplicate tensor name %q", name)
		}

		elemCount, err := shapeElementCount(tensor.Shape)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}

		if int64(tensor.elemCount()) != elemCount {
			return nil, fmt.Errorf(
				"safetensors: tensor %q shape %v expects %d elements, got %d",
				name, tensor.Shape, elemCount, tensor.elemCount(),
			)
		}

		start := len(raw)

		switch tensor.DType {
		case DTypeF32:
			raw = append(raw, make([]byte, len(tensor.F32)*4)...)
			for i, v := range tensor.F32 {
				binary.LittleEndian.PutUint32(raw[start+i*4:], math.Float32bits(v))
			}
		case DTypeI64:
			raw = append(raw, make([]byte, len(tensor.I64)*8)...)
			for i, v := range tensor.I64 {
				binary.LittleEndian.PutUint64(raw[start+i*8:], uint64(v))
			}
		default:
			return nil, fmt.Errorf("safetensors: tensor %q has unsupported dtype %q", name, tensor.DType)
		}

		header[name] = headerEntry{
			DType:   tensor.DType,
			Shape:   append([]int64{}, tensor.Shape...),
			Offsets: [2]int{start, len(raw)},
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}

	out := make([]byte, 8, 8+len(headerJSON)+len(raw))
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, raw...)

	return out, nil
}

// WriteFile encodes tensors and metadata into path. The file is written to a
// temporary sibling first and renamed into place, so readers never observe a
// partial artifact.
func WriteFile(path string, metadata map[string]string, tensors []Tensor) error {
	data, err := Encode(metadata, tensors)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("safetensors: create directory %s: %w", dir, err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("safetensors: write %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("safetensors: rename %s: %w", path, err)
	}

	return nil
}
