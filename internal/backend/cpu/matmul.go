package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/warp-ml/warp/internal/parallel"
	"github.com/warp-ml/warp/internal/tensor"
)

// MatMul multiplies [M, K] @ [K, N] -> [M, N]. Float32 and Float64 go
// straight to BLAS gemm; 16-bit floats are widened to float32 for the
// product and narrowed back.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	checkBinaryDTypes("MatMul", a, b)
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: MatMul requires 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("cpu: MatMul inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	a, b = contiguous(a), contiguous(b)
	m, k, n := aShape[0], aShape[1], bShape[1]
	out := mustRaw(tensor.Shape{m, n}, a.DType(), a.Device())
	gemm(a, b, out, m, k, n)
	return out
}

// BatchMatMul multiplies [..., M, K] @ [..., K, N] with identical leading
// dims, running one gemm per batch entry.
func (c *Backend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	checkBinaryDTypes("BatchMatMul", a, b)
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) < 3 || len(aShape) != len(bShape) {
		panic(fmt.Sprintf("cpu: BatchMatMul requires tensors of equal rank >= 3, got %v and %v", aShape, bShape))
	}
	nd := len(aShape)
	for i := 0; i < nd-2; i++ {
		if aShape[i] != bShape[i] {
			panic(fmt.Sprintf("cpu: BatchMatMul batch dimensions mismatch: %v vs %v", aShape, bShape))
		}
	}
	m, k, n := aShape[nd-2], aShape[nd-1], bShape[nd-1]
	if k != bShape[nd-2] {
		panic(fmt.Sprintf("cpu: BatchMatMul inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	a, b = contiguous(a), contiguous(b)
	outShape := append(aShape[:nd-2].Clone(), m, n)
	out := mustRaw(outShape, a.DType(), a.Device())

	batch := 1
	for i := 0; i < nd-2; i++ {
		batch *= aShape[i]
	}
	// Batch entries address disjoint views, one gemm each.
	par := c.par
	par.MinChunkSize = 1
	parallel.For(batch, func(bi int) {
		av := sliceView(a, bi*m*k, tensor.Shape{m, k})
		bv := sliceView(b, bi*k*n, tensor.Shape{k, n})
		ov := sliceView(out, bi*m*n, tensor.Shape{m, n})
		gemm(av, bv, ov, m, k, n)
	}, par)
	return out
}

// sliceView exposes a contiguous sub-range of x as its own tensor view.
func sliceView(x *tensor.RawTensor, elemOffset int, shape tensor.Shape) *tensor.RawTensor {
	return x.NarrowView(elemOffset, shape)
}

// gemm writes a@b into out. Caller guarantees contiguous operands with
// matching dtypes and validated [m,k] x [k,n] shapes.
func gemm(a, b, out *tensor.RawTensor, m, k, n int) {
	if m == 0 || n == 0 {
		return
	}
	switch a.DType() {
	case tensor.Float32:
		if k == 0 {
			return
		}
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: m, Cols: k, Stride: max(k, 1), Data: a.AsFloat32()},
			blas32.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat32()},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()})
	case tensor.Float64:
		if k == 0 {
			return
		}
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas64.General{Rows: m, Cols: k, Stride: max(k, 1), Data: a.AsFloat64()},
			blas64.General{Rows: k, Cols: n, Stride: n, Data: b.AsFloat64()},
			0,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat64()})
	default:
		// Generic lane: accumulate in float64 regardless of storage type.
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				sum := 0.0
				for p := 0; p < k; p++ {
					sum += loadFloat(a, i*k+p) * loadFloat(b, p*n+j)
				}
				storeFloat(out, i*n+j, sum)
			}
		}
	}
}
