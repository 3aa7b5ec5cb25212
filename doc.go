// Package surveyflow provides an embeddable engine for adaptive, branching
// questionnaires with durable, resumable sessions.
//
// A questionnaire is an ordered catalog of single- and multiple-choice
// questions. Some questions are shown only when an earlier answer includes a
// given option. surveyflow decides which question comes next, records
// answers, keeps a back-navigation history and persists every change so an
// interrupted session can be resumed after a restart.
//
// # Core Concepts
//
//  1. Catalog
//  2. Engine
//  3. SessionStore and Backend
//  4. Controller
//
// # Catalog
//
// A Catalog is loaded once from a YAML or JSON document (an embedded default
// ships with the package) and validated: ids are unique and branching rules
// only reference earlier questions. Its active list holds the high-importance
// questions followed by the medium ones; low-importance questions are kept but
// never asked.
//
// # Engine
//
// The Engine is pure decision logic. Every operation takes a SessionState and
// returns a new one:
//
//   - RecordAnswer / Skip move to the next visible question
//   - ToggleMultiChoice / ConfirmMultiChoice build a multiple-choice selection
//   - GoBack pops the history stack
//
// Invalid calls fail with ErrInvalidState or ErrInvalidAnswer and leave the
// input untouched.
//
// # SessionStore
//
// The SessionStore keeps one versioned JSON record in a Backend:
//
//   - In-memory (non-durable, best for tests)
//   - JSON file
//   - SQLite (embedded durability, the default)
//   - Postgres
//   - Redis
//   - MongoDB
//   - Badger
//
// Storage failures are logged and reported to the Observer but never stop
// the questionnaire. Records written by another schema version are discarded.
//
// # Controller
//
// The Controller runs one questionnaire: Start detects an unfinished session
// and offers Resume or Restart, each mutation is saved, and on completion the
// final answers go to a ResultsHandler.
//
// Example:
//
//	bundle, _ := surveyflow.NewBundle(surveyflow.NewInMemoryBackend(), surveyflow.BundleOptions{})
//	ctrl := bundle.Controller
//	if res, _ := ctrl.Start(ctx); res.ResumeAvailable {
//	    _ = ctrl.Resume(ctx)
//	}
//	q, _ := ctrl.Current()
//	_ = ctrl.Toggle(ctx, q.Options[0].Value)
//	_ = ctrl.Confirm(ctx)
//
// For a terminal front end, see cmd/surveyflow.
package surveyflow
