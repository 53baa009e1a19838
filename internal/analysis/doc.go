// Package analysis extracts summary quantities from simulated time series.
//
//   - [Peak], [HalfMaxTime], [PlateauReached]: shape of one readout series
//   - [DoseResponse]: sweep one kinetic parameter and record readouts
//   - [Sensitivity]: normalized local sensitivity of a readout to each rate
//   - [PortraitToASCII]: two readouts plotted against each other
//
// # Sensitivity
//
// Sensitivities are central differences in log space, so a value of 1 means
// the readout scales linearly with the parameter:
//
//	entries, err := analysis.Sensitivity(ctx, params, init, cfg, []string{"kg2f"}, 0.05, 4)
package analysis
