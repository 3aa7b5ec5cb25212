// Package api contains the data model shared by the surveyflow packages:
// question definitions, answers, session state, results handoff and the
// Observer interface.
//
// Most users interact with the higher-level surveyflow package, which
// re-exports these types. The api package is intended for custom backends,
// observers and front ends that want to depend on the model alone.
//
// # Concepts
//
//   - QuestionDefinition: an immutable catalog entry with its options,
//     importance and an optional BranchingCondition.
//   - Answer: a single value, an ordered set of values, or an explicit skip.
//     It serializes as a JSON string, array or null.
//   - SessionState: one questionnaire run, including its back-navigation
//     history.
//   - ResultsHandler: receives the final answers once a run completes.
//
// # Observability
//
// Observer receives session lifecycle events. LoggingObserver writes them
// through log/slog, BasicMetrics counts them, and CompositeObserver fans out
// to several observers. NoopObserver can be embedded to implement only the
// callbacks you need.
//
// # Errors
//
// Operations report contract violations with the sentinel errors defined
// here (ErrInvalidState, ErrInvalidAnswer, ...). Check them with errors.Is.
package api
