package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE press_passes (pass_number TEXT PRIMARY KEY, name TEXT, paid INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "press_passes")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "text", colMap["pass_number"])
	assert.Equal(t, "text", colMap["name"])
	assert.Equal(t, "integer", colMap["paid"])

	// PRAGMA table_info returns nothing for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE press_passes (pass_number TEXT, NAME TEXT)").Error)

	missing, err := MissingColumns(db, "press_passes", []string{"pass_number", "name", "email", "paid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "paid"}, missing)
}
