package sparse

const (
	errOrder = "sparse: kernel needs an order-3 tensor"
	errDims  = "sparse: dimension mismatch"
)

// Mul3 contracts an order-3 tensor with u on the second axis and w on the
// third: dst[i] = Σ T[i,j,k]·u[j]·w[k]. dst is overwritten; rows with no
// entries are left at zero. All slices must have length t.Dim().
func Mul3(dst []float64, t *Tensor, u, w []float64) {
	if t.order != 3 {
		panic(errOrder)
	}
	if len(dst) != t.dim || len(u) != t.dim || len(w) != t.dim {
		panic(errDims)
	}
	clear(dst)

	data := t.data
	c := t.coords[:3*len(data)]
	for n, v := range data {
		p := 3 * n
		dst[c[p]] += v * u[c[p+1]] * w[c[p+2]]
	}
}

// Mul2 contracts the third axis of an order-3 tensor with x and writes the
// resulting dim×dim matrix row-major into dst: dst[i*dim+j] = Σ J[i,j,k]·x[k].
func Mul2(dst []float64, t *Tensor, x []float64) {
	if t.order != 3 {
		panic(errOrder)
	}
	if len(dst) != t.dim*t.dim || len(x) != t.dim {
		panic(errDims)
	}
	clear(dst)

	dim := t.dim
	data := t.data
	c := t.coords[:3*len(data)]
	for n, v := range data {
		p := 3 * n
		dst[int(c[p])*dim+int(c[p+1])] += v * x[c[p+2]]
	}
}
