package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sun_transit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	db, err := New(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	require.NotNil(t, db)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	return db
}

func writeCSV(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	assert.NotNil(t, db)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "dir", "registry.db"))
	assert.Error(t, err)
}

func TestAircraftRepository_InsertAndFind(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	populated, err := repo.IsTablePopulated()
	require.NoError(t, err)
	assert.False(t, populated)

	err = repo.InsertBatch([]*models.Aircraft{
		{ICAO24: "C81E2A", Registration: "ZK-NZE", TypeCode: "B789", Model: "787-9", Operator: "Air New Zealand"},
		{ICAO24: "7c6b2d", Registration: "VH-ZNA", TypeCode: "B789"},
	})
	require.NoError(t, err)

	populated, err = repo.IsTablePopulated()
	require.NoError(t, err)
	assert.True(t, populated)

	ac, err := repo.FindByICAO("c81e2a")
	require.NoError(t, err)
	require.NotNil(t, ac)
	assert.Equal(t, "c81e2a", ac.ICAO24, "addresses are stored lower case")
	assert.Equal(t, "ZK-NZE", ac.Registration)
	assert.Equal(t, "Air New Zealand", ac.Operator)

	ac, err = repo.FindByICAO("7C6B2D")
	require.NoError(t, err)
	require.NotNil(t, ac)
	assert.Equal(t, "VH-ZNA", ac.Registration)
}

func TestAircraftRepository_FindUnknown(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	ac, err := repo.FindByICAO("000000")
	assert.NoError(t, err)
	assert.Nil(t, ac)
}

func TestAircraftRepository_InsertEmpty(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	// Empty batch should not error
	assert.NoError(t, repo.InsertBatch([]*models.Aircraft{}))
}

func TestAircraftRepository_InsertReplaces(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	require.NoError(t, repo.InsertBatch([]*models.Aircraft{{ICAO24: "c81e2a", Registration: "ZK-OLD"}}))
	require.NoError(t, repo.InsertBatch([]*models.Aircraft{{ICAO24: "c81e2a", Registration: "ZK-NZE"}}))

	ac, err := repo.FindByICAO("c81e2a")
	require.NoError(t, err)
	assert.Equal(t, "ZK-NZE", ac.Registration)
}

func TestAircraftRepository_LoadFromMultipleCSV(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	// OpenSky export style: BOM, single-quoted fields, extra columns
	part1 := writeCSV(t, "part1.csv", "\ufeff'icao24','timestamp','registration','typecode','model','operator','owner','acars'\n"+
		"'c81e2a','2024-01-01','ZK-NZE','B789','787-9','Air New Zealand','','false'\n"+
		"'','2024-01-01','NO-ICAO','C172','','','',''\n"+
		"'c82a01','2024-01-01','ZK-MCW','A320','A320-232','','Jetstar','false'\n")
	part2 := writeCSV(t, "part2.csv", "'icao24','timestamp','registration','typecode','model','operator','owner','acars'\n"+
		"'7c6b2d','2024-01-01','VH-ZNA','B789','787-9','Qantas','','false'\n"+
		"'7c6b2e','2024-01-01','VH-ZNB'\n")

	require.NoError(t, repo.LoadFromMultipleCSV([]string{part1, part2}, 2))

	tests := []struct {
		icao, registration, typeCode string
	}{
		{"c81e2a", "ZK-NZE", "B789"},
		{"c82a01", "ZK-MCW", "A320"},
		{"7c6b2d", "VH-ZNA", "B789"},
		{"7c6b2e", "VH-ZNB", ""},
	}
	for _, tt := range tests {
		ac, err := repo.FindByICAO(tt.icao)
		require.NoError(t, err)
		require.NotNil(t, ac, tt.icao)
		assert.Equal(t, tt.registration, ac.Registration)
		assert.Equal(t, tt.typeCode, ac.TypeCode)
	}

	ac, err := repo.FindByICAO("c82a01")
	require.NoError(t, err)
	assert.Equal(t, "Jetstar", ac.Owner)
}

func TestAircraftRepository_LoadMissingFile(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	err := repo.LoadFromMultipleCSV([]string{filepath.Join(t.TempDir(), "nope.csv")}, 10)
	assert.Error(t, err)
}

func TestAircraftRepository_LoadStreamsManyBatches(t *testing.T) {
	db := setupTestDB(t)
	repo := db.AircraftRepository()

	var b strings.Builder
	b.WriteString("icao24,registration,typecode\n")
	for i := 0; i < 2503; i++ {
		fmt.Fprintf(&b, "%06x,ZK-%04d,A320\n", i+1, i)
	}
	path := writeCSV(t, "big.csv", b.String())

	require.NoError(t, repo.LoadFromMultipleCSV([]string{path}, 100))

	var count int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM aircraft").Scan(&count))
	assert.Equal(t, 2503, count)

	last, err := repo.FindByICAO(fmt.Sprintf("%06x", 2503))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "ZK-2502", last.Registration)
}

func TestAircraftRepository_LoadEmptyFiles(t *testing.T) {
	repo := setupTestDB(t).AircraftRepository()

	empty := writeCSV(t, "empty.csv", "")
	headerOnly := writeCSV(t, "header.csv", "icao24,registration\n")

	require.NoError(t, repo.LoadFromMultipleCSV([]string{empty, headerOnly}, 10))

	populated, err := repo.IsTablePopulated()
	require.NoError(t, err)
	assert.False(t, populated)
}
