package tendency_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/qgsim/internal/dynamo"
	"github.com/san-kum/qgsim/internal/sparse"
	"github.com/san-kum/qgsim/internal/tendency"
	"github.com/san-kum/qgsim/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

type entry struct {
	i, j, k int
	v       float64
}

// evaluatorFor binds the raw entries as given, duplicates included.
func evaluatorFor(ndim int, entries ...entry) *tendency.Evaluator {
	b := sparse.NewBuilder(3, ndim+1)
	for _, e := range entries {
		b.Add(e.v, e.i, e.j, e.k)
	}
	t, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	j, err := tensor.Jacobian(t)
	Expect(err).NotTo(HaveOccurred())
	ev, err := tendency.NewEvaluator(ndim, t, j)
	Expect(err).NotTo(HaveOccurred())
	return ev
}

func recovered(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

const tol = 1e-12

var _ = Describe("Evaluator", func() {
	Describe("end-to-end fixture", func() {
		var ev *tendency.Evaluator
		x := []float64{2.0, 0.5}

		BeforeEach(func() {
			ev = evaluatorFor(2,
				entry{1, 0, 0, 5.0},
				entry{1, 1, 1, -1.0},
				entry{2, 0, 2, 3.0},
			)
		})

		It("computes the tendency", func() {
			f := ev.F(0, x)
			Expect(f).To(HaveLen(2))
			Expect(f[0]).To(BeNumerically("~", 1.0, tol))
			Expect(f[1]).To(BeNumerically("~", 1.5, tol))
		})

		It("computes the Jacobian", func() {
			df := ev.Df(0, x)
			Expect(mat.EqualApprox(df, mat.NewDense(2, 2, []float64{
				-4, 0,
				0, 3,
			}), tol)).To(BeTrue(), "got %v", mat.Formatted(df))
		})

		It("is autonomous", func() {
			Expect(ev.F(0, x)).To(Equal(ev.F(1e6, x)))
			Expect(ev.F(-3.5, x)).To(Equal(ev.F(42, x)))
			Expect(mat.Equal(ev.Df(0, x), ev.Df(17.25, x))).To(BeTrue())
		})

		It("does not modify the state", func() {
			in := []float64{2.0, 0.5}
			ev.F(0, in)
			ev.Df(0, in)
			Expect(in).To(Equal([]float64{2.0, 0.5}))
		})

		It("is deterministic for a fixed entry order", func() {
			first := ev.F(0, x)
			for i := 0; i < 10; i++ {
				Expect(ev.F(0, x)).To(Equal(first))
			}
		})
	})

	Describe("term orders", func() {
		x := []float64{0.7, -1.3, 2.9}

		It("treats (1,0,0) as a constant", func() {
			ev := evaluatorFor(3, entry{1, 0, 0, 2.5})
			for _, s := range [][]float64{x, {0, 0, 0}, {100, -4, 1e-3}} {
				f := ev.F(0, s)
				Expect(f[0]).To(BeNumerically("~", 2.5, tol))
				Expect(f[1]).To(BeZero())
				Expect(f[2]).To(BeZero())
				Expect(mat.Norm(ev.Df(0, s), 1)).To(BeZero())
			}
		})

		It("treats (1,0,k) as a linear term", func() {
			ev := evaluatorFor(3, entry{1, 0, 2, -0.8})
			Expect(ev.F(0, x)[0]).To(BeNumerically("~", -0.8*x[1], tol))

			df := ev.Df(0, x)
			Expect(df.At(0, 1)).To(BeNumerically("~", -0.8, tol))
			Expect(df.At(0, 0)).To(BeZero())
			Expect(df.At(0, 2)).To(BeZero())
		})

		It("gives the same linear term with symmetric storage", func() {
			ev := evaluatorFor(3, entry{1, 0, 2, -0.4}, entry{1, 2, 0, -0.4})
			Expect(ev.F(0, x)[0]).To(BeNumerically("~", -0.8*x[1], tol))
			Expect(ev.Df(0, x).At(0, 1)).To(BeNumerically("~", -0.8, tol))
		})

		It("applies the product rule to quadratic terms", func() {
			ev := evaluatorFor(3, entry{1, 1, 2, 1.7})
			Expect(ev.F(0, x)[0]).To(BeNumerically("~", 1.7*x[0]*x[1], tol))

			df := ev.Df(0, x)
			Expect(df.At(0, 0)).To(BeNumerically("~", 1.7*x[1], tol))
			Expect(df.At(0, 1)).To(BeNumerically("~", 1.7*x[0], tol))
		})

		It("differentiates squares", func() {
			ev := evaluatorFor(3, entry{3, 2, 2, 0.5})
			Expect(ev.F(0, x)[2]).To(BeNumerically("~", 0.5*x[1]*x[1], tol))
			Expect(ev.Df(0, x).At(2, 1)).To(BeNumerically("~", 2*0.5*x[1], tol))
		})
	})

	Describe("accumulation", func() {
		It("sums duplicate coordinates", func() {
			x := []float64{1.1, -0.6}
			split := evaluatorFor(2, entry{2, 1, 2, 0.3}, entry{2, 1, 2, 1.2}, entry{1, 0, 0, 1}, entry{1, 0, 0, -3})
			merged := evaluatorFor(2, entry{2, 1, 2, 1.5}, entry{1, 0, 0, -2})

			fs, fm := split.F(0, x), merged.F(0, x)
			Expect(fs[0]).To(BeNumerically("~", fm[0], tol))
			Expect(fs[1]).To(BeNumerically("~", fm[1], tol))
			Expect(mat.EqualApprox(split.Df(0, x), merged.Df(0, x), tol)).To(BeTrue())
		})

		It("ignores row 0", func() {
			ev := evaluatorFor(2, entry{0, 0, 0, 9}, entry{0, 1, 2, 9}, entry{2, 0, 1, 1})
			f := ev.F(0, []float64{3, 4})
			Expect(f).To(Equal([]float64{0, 3}))
		})
	})

	Describe("zero tensor", func() {
		It("returns zeros of the right shape", func() {
			for _, n := range []int{1, 2, 7} {
				ev := evaluatorFor(n)
				x := make([]float64, n)
				for i := range x {
					x[i] = float64(i) - 2.5
				}

				f := ev.F(0, x)
				Expect(f).To(HaveLen(n))
				Expect(f).To(Equal(make([]float64, n)))

				df := ev.Df(0, x)
				r, c := df.Dims()
				Expect(r).To(Equal(n))
				Expect(c).To(Equal(n))
				Expect(mat.Norm(df, 1)).To(BeZero())
			}
		})
	})

	Describe("shape errors", func() {
		var ev *tendency.Evaluator

		BeforeEach(func() {
			ev = evaluatorFor(2, entry{1, 0, 0, 1})
		})

		DescribeTable("state of the wrong length",
			func(x []float64) {
				r := recovered(func() { ev.F(0, x) })
				Expect(r).NotTo(BeNil())
				err, ok := r.(error)
				Expect(ok).To(BeTrue())
				Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())

				Expect(func() { ev.Df(0, x) }).To(Panic())
			},
			Entry("empty", []float64{}),
			Entry("too short", []float64{1}),
			Entry("too long", []float64{1, 2, 3}),
		)

		It("rejects a Jacobian destination of the wrong size", func() {
			Expect(func() { ev.DfInto(mat.NewDense(3, 3, nil), 0, []float64{1, 2}) }).To(Panic())
		})

		It("rejects tensors of the wrong dimension", func() {
			t, err := sparse.Zeros(3, 4)
			Expect(err).NotTo(HaveOccurred())
			_, err = tendency.NewEvaluator(2, t, t)
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())

			m, err := sparse.Zeros(2, 3)
			Expect(err).NotTo(HaveOccurred())
			_, err = tendency.NewEvaluator(2, m, m)
			Expect(errors.Is(err, sparse.ErrShape)).To(BeTrue())

			_, err = tendency.NewEvaluator(2, nil, nil)
			Expect(errors.Is(err, sparse.ErrShape)).To(BeTrue())

			_, err = tendency.NewEvaluator(0, t, t)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("in-place variants", func() {
		It("matches the allocating calls", func() {
			ev := evaluatorFor(2, entry{1, 0, 0, 5.0}, entry{1, 1, 1, -1.0}, entry{2, 0, 2, 3.0})
			x := []float64{2.0, 0.5}

			dst := []float64{99, 99}
			ev.FInto(dst, 0, x)
			Expect(dst).To(Equal(ev.F(0, x)))

			m := mat.NewDense(2, 2, []float64{9, 9, 9, 9})
			ev.DfInto(m, 0, x)
			Expect(mat.Equal(m, ev.Df(0, x))).To(BeTrue())

			var sys dynamo.InPlaceSystem = ev
			Expect(sys.StateDim()).To(Equal(2))
			Expect([]float64(sys.Derive(x, 0))).To(Equal(ev.F(0, x)))
		})

		It("exposes plain function values", func() {
			ev := evaluatorFor(2, entry{2, 0, 1, 4})
			f, df := ev.Funcs()
			Expect(f(0, []float64{0.5, 0})).To(Equal([]float64{0, 2}))
			Expect(df(0, []float64{0.5, 0}).At(1, 0)).To(BeNumerically("~", 4, tol))
		})
	})

	Describe("non-finite states", func() {
		var ev *tendency.Evaluator

		BeforeEach(func() {
			ev = evaluatorFor(2,
				entry{1, 0, 0, 5.0},
				entry{1, 1, 1, -1.0},
				entry{2, 0, 2, 3.0},
			)
		})

		It("passes NaN through to the affected components", func() {
			x := []float64{math.NaN(), 0.5}
			var f []float64
			var df *mat.Dense
			Expect(recovered(func() {
				f = ev.F(0, x)
				df = ev.Df(0, x)
			})).To(BeNil())

			Expect(math.IsNaN(f[0])).To(BeTrue())
			Expect(f[1]).To(BeNumerically("~", 1.5, tol))
			Expect(math.IsNaN(df.At(0, 0))).To(BeTrue())
			Expect(df.At(1, 1)).To(BeNumerically("~", 3, tol))
		})

		It("passes Inf through to the affected components", func() {
			x := []float64{math.Inf(1), 0.5}
			f := ev.F(0, x)
			df := ev.Df(0, x)

			Expect(math.IsInf(f[0], -1)).To(BeTrue())
			Expect(f[1]).To(BeNumerically("~", 1.5, tol))
			Expect(math.IsInf(df.At(0, 0), -1)).To(BeTrue())
			Expect(df.At(1, 1)).To(BeNumerically("~", 3, tol))

			f = ev.F(0, []float64{2.0, math.Inf(1)})
			Expect(f[0]).To(BeNumerically("~", 1.0, tol))
			Expect(math.IsInf(f[1], 1)).To(BeTrue())
		})
	})
})
