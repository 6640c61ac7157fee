package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/jackbeau/stagehand/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuild(t *testing.T) {
	base := stderrors.New("device open failed")
	ee := errors.New(base).
		Component("audio").
		Category(errors.CategoryDeviceUnavailable).
		Context("device_index", 1).
		Build()

	require.Equal(t, "device open failed", ee.Error())
	assert.Equal(t, "audio", ee.Component)
	assert.Equal(t, errors.CategoryDeviceUnavailable, ee.Category)
	assert.Equal(t, 1, ee.GetContext()["device_index"])
	assert.True(t, ee.Category.Fatal())
}

func TestBuilderDefaultsComponent(t *testing.T) {
	ee := errors.Newf("missing %s", "field").Build()
	assert.Equal(t, errors.ComponentUnknown, ee.Component)
}

func TestUnwrapAndIs(t *testing.T) {
	base := stderrors.New("boom")
	ee := errors.New(base).Category(errors.CategoryFileIO).Build()

	assert.True(t, stderrors.Is(ee, base))

	other := errors.New(stderrors.New("different")).Category(errors.CategoryFileIO).Build()
	assert.True(t, ee.Is(other))

	another := errors.New(stderrors.New("different")).Category(errors.CategoryNetwork).Build()
	assert.False(t, ee.Is(another))
}

func TestContextCopyIsDefensive(t *testing.T) {
	ee := errors.New(stderrors.New("x")).Context("k", 1).Build()
	ctx := ee.GetContext()
	ctx["k"] = 2
	assert.Equal(t, 1, ee.GetContext()["k"])
}

func TestNonFatalCategoriesDoNotReport(t *testing.T) {
	ee := errors.New(stderrors.New("no match")).Category(errors.CategoryEmptyFrame).Build()
	assert.False(t, ee.Category.Fatal())
	assert.False(t, ee.IsReported())
}
