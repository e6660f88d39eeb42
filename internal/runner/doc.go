// Package runner drives the model-rotation probe loop.
//
// A Runner repeatedly sends a prompt to the selected model of a
// [catalog.Registry] and reacts to the classified outcome:
//   - success: count the invocation and persist a snapshot, stay on the model
//   - rate limited: rotate to the next model and count a consecutive failure
//   - not found: deactivate the model for the rest of the run
//   - other errors: handled by the configured [ErrorPolicy]
//
// The run stops once the failure threshold is reached, when no active model
// remains, when the invocation cap is hit, or when ctx is canceled. Every stop
// persists the final registry snapshot.
//
// # Basic Usage
//
//	r, err := runner.New(runner.Options{
//		Registry:  registry,
//		Factory:   factory,
//		Store:     store.NewCSV("output", "Gemini"),
//		Threshold: 25,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := r.Run(ctx)
//
// # Middleware
//
// Clients built by the factory are wrapped with [WithTracing],
// [WithMetrics] and [WithLogging] when the corresponding option is set.
package runner
