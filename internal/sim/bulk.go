package sim

import "github.com/san-kum/egfrsim/internal/model"

// bulk advances every interior node of every cytosolic species by one
// explicit Euler step, reading only the current level.
func (st *state) bulk(dt float64) {
	nr := st.grid.Nr
	inv := 1 / (st.grid.Dr * st.grid.Dr)
	for j := 1; j < nr; j++ {
		for s, b := range st.cyto {
			st.node[s] = b.Cur[j]
		}
		model.CytosolicRates(&st.k, &st.node, &st.rates)
		for s, b := range st.cyto {
			c := b.Cur
			lap := (c[j+1] - 2*c[j] + c[j-1]) * inv
			b.Next[j] = c[j] + dt*(st.diff[s]*lap+st.rates[s])
		}
	}
}

// innerBoundary mirrors node 1 onto node 0 (zero flux at the center).
func (st *state) innerBoundary() {
	for _, b := range st.cyto {
		b.Next[0] = b.Next[1]
	}
}
