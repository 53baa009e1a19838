package sim_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/egfrsim/internal/analysis"
	"github.com/san-kum/egfrsim/internal/model"
	"github.com/san-kum/egfrsim/internal/sim"
)

type residualTrace struct {
	reports []sim.CouplingReport
}

func (r *residualTrace) OnSample(*sim.Snapshot) {}
func (r *residualTrace) OnCoupling(_ int, rep sim.CouplingReport) {
	r.reports = append(r.reports, rep)
}

func bindingOnly() model.Params {
	return model.Params{
		Diffusivity: model.Diffusivities{
			SFK: 1, GAB1: 1, GRB2: 1, GRB2GAB1: 1, SHP2: 1, PGAB1SHP2: 1, GRB2PGAB1SHP2: 1,
		},
		Kinetics: model.Kinetics{KG1f: 1},
	}
}

func newQuiet(p model.Params) *sim.Simulator {
	s := sim.New(p)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s
}

var _ = Describe("Simulator", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.Config{Radius: 1, Dr: 0.1, FinalTime: 1, NumSamples: 10, ValidateState: true}
	})

	Context("with only GRB2-GAB1 binding", func() {
		It("forms the complex monotonically and conserves GRB2", func() {
			in := model.DefaultInitial()
			res, err := newQuiet(bindingOnly()).Run(context.Background(), in, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Samples()).To(Equal(10))

			complexes := make([]float64, res.Samples())
			for k := range complexes {
				complexes[k] = res.CytosolTotal([]model.Species{model.GRB2GAB1}, k)
				Expect(res.CytosolTotal([]model.Species{model.GRB2, model.GRB2GAB1}, k)).
					To(BeNumerically("~", 0.9, 1e-9))
			}
			Expect(analysis.NonDecreasing(complexes, 0)).To(BeTrue())

			p := res.Profile(model.GRB2GAB1)
			rows, cols := p.Dims()
			for i := 0; i < rows; i++ {
				for k := 1; k < cols; k++ {
					Expect(p.At(i, k)).To(BeNumerically(">=", p.At(i, k-1)))
				}
			}
		})

		It("plateaus once GAB1 is depleted", func() {
			in := model.Initial{SFK: 1, GRB2: 10, GAB1: 5, SHP2: 1, EGFR: 1}
			cfg.FinalTime = 10
			cfg.NumSamples = 50
			res, err := newQuiet(bindingOnly()).Run(context.Background(), in, cfg)
			Expect(err).NotTo(HaveOccurred())

			complexes := make([]float64, res.Samples())
			for k := range complexes {
				complexes[k] = res.CytosolTotal([]model.Species{model.GRB2GAB1}, k)
			}
			Expect(analysis.NonDecreasing(complexes, 1e-12)).To(BeTrue())
			Expect(analysis.PlateauReached(complexes, 5, 1e-6)).To(BeTrue())
			Expect(complexes[len(complexes)-1]).To(BeNumerically("~", 4.5, 1e-6))
		})
	})

	Context("with the full network", func() {
		It("converges the membrane coupling well inside the cap", func() {
			trace := &residualTrace{}
			s := newQuiet(model.DefaultParams())
			s.AddObserver(trace)

			res, err := s.Run(context.Background(), model.DefaultInitial(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Diagnostics.NonConvergedSteps).To(BeZero())
			Expect(res.Diagnostics.MaxIterations).To(BeNumerically("<", sim.DefaultMaxIter))
			Expect(trace.reports).To(HaveLen(res.Steps))

			for _, rep := range trace.reports {
				Expect(rep.Converged).To(BeTrue())
				Expect(rep.Residuals).To(HaveLen(rep.Iterations))
				for i := 1; i < len(rep.Residuals); i++ {
					Expect(rep.Residuals[i]).To(BeNumerically("<=", rep.Residuals[i-1]+1e-9))
				}
			}
		})

		It("keeps readouts within [0, 1]", func() {
			res, err := newQuiet(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SHP2Fraction).To(HaveLen(res.Samples()))
			for k := range res.Times {
				shp2, phospho := res.Readouts(k)
				Expect(shp2).To(BeNumerically(">=", 0))
				Expect(phospho).To(BeNumerically("<=", 1))
				Expect(shp2).To(BeNumerically("<=", phospho))
			}
			Expect(res.PhosphoFraction[res.Samples()-1]).To(BeNumerically(">", res.PhosphoFraction[0]))
		})

		It("keeps every concentration non-negative", func() {
			res, err := newQuiet(model.DefaultParams()).Run(context.Background(), model.DefaultInitial(), cfg)
			Expect(err).NotTo(HaveOccurred())
			for _, p := range res.Profiles {
				Expect(mat.Min(p)).To(BeNumerically(">=", 0))
			}
			for _, series := range res.Membrane {
				for _, v := range series {
					Expect(v).To(BeNumerically(">=", 0))
				}
			}
		})
	})
})
