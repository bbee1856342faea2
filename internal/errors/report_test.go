package errors

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWrapAndUnwrap(t *testing.T) {
	r := New(PhaseCheck, TypMismatch, "type mismatch: Int vs String", &Span{File: "M.ditto", StartLine: 3, StartColumn: 10})
	err := Wrap(r)
	require.Error(t, err)

	got, ok := AsReport(err)
	require.True(t, ok)
	assert.Equal(t, TypMismatch, got.Code)
	assert.Equal(t, PhaseCheck, got.Phase)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil))
}

func TestBagCapsCollection(t *testing.T) {
	b := NewBag()
	for i := 0; i < maxCollected+5; i++ {
		b.Add(New(PhaseCheck, ModUnresolvedName, "x", nil))
	}
	assert.Len(t, b.Reports(), maxCollected)
	assert.True(t, b.Full())
}

func TestWarningsNDJSONRoundTrip(t *testing.T) {
	warnings := []Warning{
		{Code: "WRN001", Message: "unused import: Foo"},
		{Code: "WRN002", Message: "redundant type annotation", Span: &Span{File: "M.ditto", StartLine: 1, StartColumn: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWarningsNDJSON(&buf, warnings))

	reports, err := ReadWarningsNDJSON(&buf)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "WRN001", reports[0].Code)
	assert.Equal(t, "WRN002", reports[1].Code)
	require.NotNil(t, reports[1].Span)
	assert.Equal(t, 1, reports[1].Span.StartLine)
}
