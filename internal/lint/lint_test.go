package lint_test

import (
	"testing"

	"cogc/internal/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanForbiddenLiteralsFindsUncoveredOccurrence(t *testing.T) {
	findings := lint.ScanForbiddenLiterals(`if name == "Widget":\n    pass`, []string{"Widget"}, nil)
	require.NotEmpty(t, findings)
	assert.Equal(t, "Widget", findings[0].Literal)
}

func TestScanForbiddenLiteralsIgnoresAllowedSpan(t *testing.T) {
	src := `class Widget(Base):`
	idx := len(`class `)
	findings := lint.ScanForbiddenLiterals(src, []string{"Widget"}, []lint.Span{{Start: idx, Len: len("Widget")}})
	assert.Empty(t, findings)
}

func TestCheckSlotContainmentRejectsEchoedMarkers(t *testing.T) {
	err := lint.CheckSlotContainment("return 1\n# LLM_SLOT:end:x")
	assert.Error(t, err)
}

func TestCheckSlotContainmentAllowsCleanBody(t *testing.T) {
	err := lint.CheckSlotContainment("return 1")
	assert.NoError(t, err)
}
