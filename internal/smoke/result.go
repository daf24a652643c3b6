package smoke

// Violation is one scenario's structured failure: endpoint, scenario
// name, expected status, actual status, error type, parsed stack
// trace (if any), and the IR flow id that generated it.
type Violation struct {
	Endpoint       string
	ScenarioName   string
	ExpectedStatus int
	ActualStatus   int
	ErrorType      string
	StackTrace     string
	FlowID         string
	ServerLogs     string
}

// SmokeResult is SmokeRunner's output.
type SmokeResult struct {
	ScenariosTotal  int
	ScenariosPassed int
	PassRate        float64
	Violations      []Violation
	ServerLogs      string
	FixtureSnapshot map[string]any
}

// NewSmokeResult computes PassRate from total/passed and attaches
// violations/logs/snapshot.
func NewSmokeResult(total, passed int, violations []Violation, serverLogs string, snapshot map[string]any) SmokeResult {
	rate := 1.0
	if total > 0 {
		rate = float64(passed) / float64(total)
	}
	return SmokeResult{
		ScenariosTotal:  total,
		ScenariosPassed: passed,
		PassRate:        rate,
		Violations:      violations,
		ServerLogs:      serverLogs,
		FixtureSnapshot: snapshot,
	}
}
