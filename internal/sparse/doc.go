// Package sparse stores coordinate-list (COO) tensors and contracts them
// against dense vectors.
//
// A [Tensor] keeps its entries as two parallel columns: a flat int32
// coordinate array (nnz × order, row-major) and a float64 value array. The
// kernels walk both columns once per call:
//
//   - [Mul3]: y[i] = Σ T[i,j,k]·u[j]·w[k]
//   - [Mul2]: M[i,j] = Σ J[i,j,k]·x[k]
//
// Entries may appear in any order and the same coordinate may be stored more
// than once; the kernels accumulate every stored entry. [Tensor.Coalesce]
// produces the canonical form with duplicates summed.
//
// Tensors are immutable once built and may be shared between goroutines.
package sparse
