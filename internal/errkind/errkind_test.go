package errkind_test

import (
	"errors"
	"testing"

	"cogc/internal/errkind"
	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := errors.New("boom")
	wrapped := errkind.Wrap(errkind.StrategyLocal, "repair.apply_patch", "patch rejected", base)
	assert.Equal(t, errkind.StrategyLocal, errkind.KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))
}

func TestKindOfDefaultsToRecoverableForPlainErrors(t *testing.T) {
	assert.Equal(t, errkind.Recoverable, errkind.KindOf(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	fatal := errkind.New(errkind.Fatal, "lowering.validate", "schema drift")
	assert.True(t, errkind.IsFatal(fatal))
	assert.False(t, errkind.IsFatal(errkind.New(errkind.Advisory, "compliance", "warning")))
}

func TestKindStringValues(t *testing.T) {
	assert.Equal(t, "fatal", errkind.Fatal.String())
	assert.Equal(t, "advisory", errkind.Advisory.String())
}
