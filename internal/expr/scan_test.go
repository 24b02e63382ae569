// SPDX-License-Identifier: MIT

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFindsMultipleExpressions(t *testing.T) {
	s := "echo ${{ github.event.issue.title }} and ${{ github.actor }}"
	exprs := Scan(s)
	require.Len(t, exprs, 2)
	assert.Equal(t, s[exprs[0].Span.Start:exprs[0].Span.End], "${{ github.event.issue.title }}")
	assert.Equal(t, s[exprs[1].Span.Start:exprs[1].Span.End], "${{ github.actor }}")
	assert.NoError(t, exprs[0].Err)
	assert.NoError(t, exprs[1].Err)
}

func TestScanHandlesQuotedBraceInsideString(t *testing.T) {
	s := "${{ format('it is {0}}}', 'ok') }}"
	exprs := Scan(s)
	require.Len(t, exprs, 1)
	assert.NoError(t, exprs[0].Err)
}

func TestScanUnterminatedDoesNotPanic(t *testing.T) {
	s := "run: ${{ github.event.issue.title"
	assert.NotPanics(t, func() {
		exprs := Scan(s)
		require.Len(t, exprs, 1)
		assert.Error(t, exprs[0].Err)
	})
}

func TestScanSpansOffsetIntoOuterString(t *testing.T) {
	s := "prefix ${{ github.actor }} suffix"
	exprs := Scan(s)
	require.Len(t, exprs, 1)
	require.NotNil(t, exprs[0].AST)
	node := exprs[0].AST
	assert.Equal(t, "github.actor", s[node.Span.Start:node.Span.End])
}

func TestScanNoExpressions(t *testing.T) {
	assert.Empty(t, Scan("plain string, no templates here"))
}
