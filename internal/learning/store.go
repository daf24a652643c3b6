// Package learning implements the learning store: the
// persistent record of past failures and repairs that future pipeline
// runs read back as generation-time warnings. Grounded on the
// teacher's `internal/store` local/cold sqlite persistence split (same
// `mattn/go-sqlite3` driver `internal/lowering`'s cache already opens
// with) and `internal/retrieval/tiered_context.go`/`sparse.go`'s
// keyword-intersection retrieval shape, generalized here from
// retrieving conversation context to retrieving fix/anti-patterns.
package learning

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrorKnowledge is one historical record of a smoke failure.
type ErrorKnowledge struct {
	EndpointNormalized string
	ErrorType          string
	ExceptionClass     string
	FirstSeen          time.Time
	LastSeen           time.Time
	OccurrenceCount    int
}

// Signature is ErrorKnowledge's dedup key.
func (e ErrorKnowledge) Signature() string {
	return fmt.Sprintf("%s|%s|%s", e.EndpointNormalized, e.ErrorType, e.ExceptionClass)
}

// FixPattern is one successful repair, replayed verbatim by
// internal/repair's learned-pattern-replay strategy when its
// signature matches a new violation.
type FixPattern struct {
	ErrorSignature string
	FixType        string
	Template       string
	SuccessCount   int
	FailureCount   int
}

// SuccessRate is success_count / (success_count + failure_count), 0 if unseen.
func (p FixPattern) SuccessRate() float64 {
	total := p.SuccessCount + p.FailureCount
	if total == 0 {
		return 0
	}
	return float64(p.SuccessCount) / float64(total)
}

// EligibleForPromotion reports whether this pattern has crossed the
// promotion threshold: success_rate >= 0.7 and success_count >= 3 across at least
// minProjects distinct projects.
func (p FixPattern) EligibleForPromotion(distinctProjects, minProjects int) bool {
	return p.SuccessRate() >= 0.7 && p.SuccessCount >= 3 && distinctProjects >= minProjects
}

// GenerationAntiPattern is one emission-time warning the LLM stratum
// prepends to its prompt: a wrong/correct snippet pair keyed by the
// entity/endpoint shape it was observed on.
type GenerationAntiPattern struct {
	EntityPattern    string
	EndpointPattern  string
	WrongSnippet     string
	CorrectSnippet   string
	Severity         int
	OccurrenceCount  int
	PreventionCount  int
}

// Signature is GenerationAntiPattern's dedup key.
func (a GenerationAntiPattern) Signature() string {
	return fmt.Sprintf("%s|%s", a.EntityPattern, a.EndpointPattern)
}

// EscalatedSeverity reports whether this anti-pattern's occurrence
// count has crossed the severity-escalation threshold.
func (a GenerationAntiPattern) EscalatedSeverity() bool {
	return a.OccurrenceCount >= 2
}

// Store is the sqlite-backed LearningStore over the three logical
// tables. One Store instance is shared process-wide across pipeline
// runs as the PatternBank registry.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the learning store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("learning: opening store: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS error_knowledge (
		signature TEXT PRIMARY KEY,
		endpoint_normalized TEXT NOT NULL,
		error_type TEXT NOT NULL,
		exception_class TEXT NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL,
		occurrence_count INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS fix_pattern (
		error_signature TEXT PRIMARY KEY,
		fix_type TEXT NOT NULL,
		template TEXT NOT NULL,
		success_count INTEGER NOT NULL,
		failure_count INTEGER NOT NULL,
		distinct_projects INTEGER NOT NULL DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS generation_anti_pattern (
		signature TEXT PRIMARY KEY,
		entity_pattern TEXT NOT NULL,
		endpoint_pattern TEXT NOT NULL,
		wrong_snippet TEXT NOT NULL,
		correct_snippet TEXT NOT NULL,
		severity INTEGER NOT NULL,
		occurrence_count INTEGER NOT NULL,
		prevention_count INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("learning: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordError upserts an ErrorKnowledge row, incrementing
// occurrence_count and advancing last_seen on a repeat signature.
func (s *Store) RecordError(e ErrorKnowledge) error {
	sig := e.Signature()
	_, err := s.db.Exec(`
		INSERT INTO error_knowledge (signature, endpoint_normalized, error_type, exception_class, first_seen, last_seen, occurrence_count)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(signature) DO UPDATE SET
			last_seen = excluded.last_seen,
			occurrence_count = occurrence_count + 1`,
		sig, e.EndpointNormalized, e.ErrorType, e.ExceptionClass, e.FirstSeen.Unix(), e.LastSeen.Unix())
	if err != nil {
		return fmt.Errorf("learning: recording error knowledge: %w", err)
	}
	return nil
}

// RecordFixOutcome upserts a FixPattern row, incrementing
// success_count or failure_count for signature.
func (s *Store) RecordFixOutcome(signature, fixType, template string, succeeded bool) error {
	successDelta, failureDelta := 0, 1
	if succeeded {
		successDelta, failureDelta = 1, 0
	}
	_, err := s.db.Exec(`
		INSERT INTO fix_pattern (error_signature, fix_type, template, success_count, failure_count, distinct_projects)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(error_signature) DO UPDATE SET
			success_count = success_count + excluded.success_count,
			failure_count = failure_count + excluded.failure_count`,
		signature, fixType, template, successDelta, failureDelta)
	if err != nil {
		return fmt.Errorf("learning: recording fix outcome: %w", err)
	}
	return nil
}

// FixPatternFor returns the stored FixPattern for signature, if any.
func (s *Store) FixPatternFor(signature string) (FixPattern, bool, error) {
	row := s.db.QueryRow(`SELECT error_signature, fix_type, template, success_count, failure_count FROM fix_pattern WHERE error_signature = ?`, signature)
	var p FixPattern
	if err := row.Scan(&p.ErrorSignature, &p.FixType, &p.Template, &p.SuccessCount, &p.FailureCount); err != nil {
		if err == sql.ErrNoRows {
			return FixPattern{}, false, nil
		}
		return FixPattern{}, false, fmt.Errorf("learning: reading fix pattern: %w", err)
	}
	return p, true, nil
}

// UpsertAntiPattern inserts or deduplicates-and-increments a
// GenerationAntiPattern row by signature.
func (s *Store) UpsertAntiPattern(a GenerationAntiPattern) error {
	sig := a.Signature()
	_, err := s.db.Exec(`
		INSERT INTO generation_anti_pattern (signature, entity_pattern, endpoint_pattern, wrong_snippet, correct_snippet, severity, occurrence_count, prevention_count)
		VALUES (?, ?, ?, ?, ?, ?, 1, 0)
		ON CONFLICT(signature) DO UPDATE SET
			occurrence_count = occurrence_count + 1`,
		sig, a.EntityPattern, a.EndpointPattern, a.WrongSnippet, a.CorrectSnippet, a.Severity)
	if err != nil {
		return fmt.Errorf("learning: upserting anti-pattern: %w", err)
	}
	return nil
}

// TopAntiPatterns returns up to limit anti-patterns ordered by
// severity then occurrence_count descending — the candidate set
// PromptBuilder intersects against flow keywords.
func (s *Store) TopAntiPatterns(limit int) ([]GenerationAntiPattern, error) {
	rows, err := s.db.Query(`
		SELECT entity_pattern, endpoint_pattern, wrong_snippet, correct_snippet, severity, occurrence_count, prevention_count
		FROM generation_anti_pattern
		ORDER BY severity DESC, occurrence_count DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("learning: querying anti-patterns: %w", err)
	}
	defer rows.Close()

	var out []GenerationAntiPattern
	for rows.Next() {
		var a GenerationAntiPattern
		if err := rows.Scan(&a.EntityPattern, &a.EndpointPattern, &a.WrongSnippet, &a.CorrectSnippet, &a.Severity, &a.OccurrenceCount, &a.PreventionCount); err != nil {
			return nil, fmt.Errorf("learning: scanning anti-pattern row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
