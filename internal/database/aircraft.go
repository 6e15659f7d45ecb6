package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sun_transit/internal/models"

	"github.com/dimchansky/utfbom"
	"github.com/gocarina/gocsv"
)

type AircraftRepository interface {
	InsertBatch(aircraft []*models.Aircraft) error
	IsTablePopulated() (bool, error)
	LoadFromMultipleCSV(csvPaths []string, batchSize int) error
	FindByICAO(icao24 string) (*models.Aircraft, error)
}

type aircraftRepository struct {
	db *sql.DB
}

func NewAircraftRepository(db *sql.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

// InsertBatch inserts one or more aircraft records in a single transaction
func (r *aircraftRepository) InsertBatch(aircraft []*models.Aircraft) error {
	if len(aircraft) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft (
		icao24, registration, manufacturerName, model, typecode, operator,
		operatorCallsign, operatorIcao, owner, country, built
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ac := range aircraft {
		if _, err := stmt.Exec(
			strings.ToLower(ac.ICAO24), ac.Registration, ac.ManufacturerName,
			ac.Model, ac.TypeCode, ac.Operator, ac.OperatorCallsign,
			ac.OperatorICAO, ac.Owner, ac.Country, ac.Built,
		); err != nil {
			return fmt.Errorf("failed to insert aircraft: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *aircraftRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM aircraft LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check aircraft table: %w", err)
	}
	return true, nil
}

// FindByICAO returns the registry entry for an ICAO address, or nil if the
// aircraft is unknown
func (r *aircraftRepository) FindByICAO(icao24 string) (*models.Aircraft, error) {
	ac := &models.Aircraft{}
	err := r.db.QueryRow(`SELECT icao24, registration, manufacturerName, model,
		typecode, operator, operatorCallsign, operatorIcao, owner, country, built
		FROM aircraft WHERE icao24 = ?`, strings.ToLower(icao24)).Scan(
		&ac.ICAO24, &ac.Registration, &ac.ManufacturerName, &ac.Model,
		&ac.TypeCode, &ac.Operator, &ac.OperatorCallsign, &ac.OperatorICAO,
		&ac.Owner, &ac.Country, &ac.Built,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up aircraft %s: %w", icao24, err)
	}
	return ac, nil
}

// LoadFromMultipleCSV loads aircraft data from one or more CSV files, such as
// the OpenSky aircraft database split into parts. Rows are streamed into
// batches so a large file is never held in memory at once.
func (r *aircraftRepository) LoadFromMultipleCSV(csvPaths []string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 5000
	}

	for _, csvPath := range csvPaths {
		if err := r.loadCSV(csvPath, batchSize); err != nil {
			return err
		}
	}

	return nil
}

func (r *aircraftRepository) loadCSV(csvPath string, batchSize int) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(utfbom.SkipOnly(file))
	reader.LazyQuotes = true    // Handle malformed quotes in CSV
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	rows := make(chan *models.Aircraft, batchSize)
	parseErr := make(chan error, 1)
	go func() {
		parseErr <- gocsv.UnmarshalDecoderToChan(gocsv.NewSimpleDecoderFromCSVReader(quoteTrimmingReader{reader}), rows)
	}()

	var insertErr error
	batch := make([]*models.Aircraft, 0, batchSize)
	for ac := range rows {
		// Keep draining after a failed insert so the parser can finish
		if insertErr != nil {
			continue
		}

		// Skip records without ICAO24 (invalid data)
		if ac.ICAO24 == "" {
			continue
		}

		batch = append(batch, ac)
		if len(batch) >= batchSize {
			if err := r.InsertBatch(batch); err != nil {
				insertErr = fmt.Errorf("failed to insert batch from %s: %w", csvPath, err)
			}
			batch = batch[:0] // Reset slice but keep capacity
		}
	}

	// An empty file has no header row to read
	if err := <-parseErr; err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse CSV file %s: %w", csvPath, err)
	}
	if insertErr != nil {
		return insertErr
	}

	if err := r.InsertBatch(batch); err != nil {
		return fmt.Errorf("failed to insert final batch from %s: %w", csvPath, err)
	}

	return nil
}

// quoteTrimmingReader strips the single quotes the OpenSky export wraps
// around every field, header names included.
type quoteTrimmingReader struct {
	r *csv.Reader
}

func (q quoteTrimmingReader) Read() ([]string, error) {
	record, err := q.r.Read()
	if err != nil {
		return nil, err
	}
	for i, f := range record {
		record[i] = strings.Trim(strings.TrimSpace(f), "'\"")
	}
	return record, nil
}

func (q quoteTrimmingReader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		record, err := q.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}
