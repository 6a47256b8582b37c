package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumnsBasic(t *testing.T) {
	attrs, err := parseColumns([]string{"id:23:notnull", "name:25"})
	require.NoError(t, err)
	require.Len(t, attrs, 2)

	assert.Equal(t, "id", attrs[0].Name)
	assert.EqualValues(t, 1, attrs[0].AttNum)
	assert.EqualValues(t, 23, attrs[0].TypeID)
	assert.True(t, attrs[0].NotNull)

	assert.Equal(t, "name", attrs[1].Name)
	assert.EqualValues(t, 2, attrs[1].AttNum)
	assert.False(t, attrs[1].NotNull)
}

func TestParseColumnsRejectsMalformedSpec(t *testing.T) {
	_, err := parseColumns([]string{"justname"})
	assert.Error(t, err)
}

func TestParseColumnsRejectsNonNumericType(t *testing.T) {
	_, err := parseColumns([]string{"id:notatype"})
	assert.Error(t, err)
}

func TestParseRelationIDList(t *testing.T) {
	ids, err := parseRelationIDList("10, 20,30")
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.EqualValues(t, 10, ids[0])
	assert.EqualValues(t, 20, ids[1])
	assert.EqualValues(t, 30, ids[2])
}
