// Package lib provides a Go SDK for tracking the progress of guided business intakes.
//
// An intake is a dashboard document per user: ordered modules, each with ordered
// sections. Completing a section unlocks the next one, completing every section
// of a module unlocks the next module, and milestones are achieved as progress
// crosses their thresholds.
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Create the dashboard from the default template.
//	created, err := client.InitializeDashboard(ctx, "user-1")
//	fmt.Println(created.AlreadyExists, created.Dashboard.OverallProgress)
//
//	// Work on the first section.
//	client.StartSection(ctx, "user-1", "business-foundation", "company-profile")
//	client.SaveSectionData(ctx, "user-1", "business-foundation", "company-profile", json.RawMessage(`{"name":"acme"}`))
//	res, err := client.CompleteSection(ctx, "user-1", "business-foundation", "company-profile", nil)
//	fmt.Println(res.ModuleProgress, res.Unlocked, res.Milestones)
//
// # Reads and repairs
//
// [Client.GetDashboardState] and [Client.GetSectionData] return the dashboard
// as it should be, healing unlock drift on the returned copy only. They never
// write. [Client.RepairDashboard] persists the healing, and
// [Client.InitializeDashboard] runs it when the dashboard already exists.
//
// # Sequence policies
//
// The [SequencePolicy] decides which sections can be started or completed:
//
//   - [SequencePolicyNone]: nothing is gated.
//   - [SequencePolicyUnlocked] (default): the module and section must be unlocked.
//     Completing an unlocked section ahead of earlier ones is allowed.
//   - [SequencePolicyStrict]: every earlier section of the module must be completed.
//
// Saving data and recording edits are never gated.
//
// # Stores
//
// By default dashboards are stored in a SQLite database at ~/.intake/intake.db.
// Set [Config].Store to [StoreMemory] for tests and ephemeral usage, or to
// [StorePostgres] and [StoreRedis] to share dashboards between processes.
// Concurrent writers are detected with a revision check and retried up to
// [Config].MaxAttempts times.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Dashboard, module or section does not exist.
//   - [ErrAlreadyExists]: Dashboard already exists.
//   - [ErrNotValid]: Invalid input, template or state transition.
//   - [ErrLocked]: The sequence policy rejected the operation.
//   - [ErrConflict]: The dashboard kept changing concurrently.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines.
package lib
