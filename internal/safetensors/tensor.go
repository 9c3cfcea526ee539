// Package safetensors reads and writes the safetensors container used for
// persisted dataset artifacts: an 8-byte little-endian header length, a JSON
// header describing each tensor, then the raw little-endian tensor bytes.
package safetensors

const (
	DTypeF32 = "F32"
	DTypeI64 = "I64"

	metadataKey = "__metadata__"
)

// Tensor holds a single named tensor. Exactly one of F32 or I64 carries the
// values, selected by DType.
type Tensor struct {
	Name  string
	DType string
	Shape []int64
	F32   []float32
	I64   []int64
}

// Float32 builds an F32 tensor.
func Float32(name string, shape []int64, data []float32) Tensor {
	return Tensor{Name: name, DType: DTypeF32, Shape: shape, F32: data}
}

// Int64 builds an I64 tensor.
func Int64(name string, shape []int64, data []int64) Tensor {
	return Tensor{Name: name, DType: DTypeI64, Shape: shape, I64: data}
}

// Vector builds a rank-1 I64 tensor holding data.
func Vector(name string, data []int64) Tensor {
	return Int64(name, []int64{int64(len(data))}, data)
}

func (t Tensor) elemCount() int {
	if t.DType == DTypeI64 {
		return len(t.I64)
	}

	return len(t.F32)
}
