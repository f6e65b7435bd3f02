package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"aim-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// Row widths the classifier recognizes. Anything else is skipped.
const (
	tileRowWidth     = 12
	keyValueRowWidth = 2
	statsRowWidth    = 6
)

// keyAllowList is the fixed set of first cells accepted as key/value rows.
// Two-column rows outside this list are dropped, matching the trainer's
// export quirks; see allowedKeys in the tests before touching this.
var keyAllowList = map[string]bool{
	"Kills:":      true,
	"Score:":      true,
	"Hash:":       true,
	"Deaths:":     true,
	"Scenario:":   true,
	"FOV:":        true,
	"Horiz Sens:": true,
}

type Parser struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseFile reads one run file and classifies every row by width into tile,
// key/value and stats records. Rows of unknown width are skipped; a stats
// row that fails to decode aborts the whole file.
func (p *Parser) ParseFile(path string) (*domain.ParsedRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	defer f.Close()

	run, err := p.parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return run, nil
}

func (p *Parser) parse(r io.Reader) (*domain.ParsedRun, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	run := &domain.ParsedRun{}
	header := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if header {
			header = false
			continue
		}

		switch len(record) {
		case tileRowWidth:
			run.Tiles = append(run.Tiles, decodeTileRow(record))
		case keyValueRowWidth:
			if !keyAllowList[record[0]] {
				p.logger.Debug().Str("key", record[0]).Msg("dropping key/value row outside allow list")
				continue
			}
			run.KeyValues = append(run.KeyValues, domain.KeyValueRow{
				Key:   record[0],
				Value: record[1],
			})
		case statsRowWidth:
			stats, err := decodeStatsRow(record)
			if err != nil {
				return nil, err
			}
			// Files are expected to carry at most one stats row; when
			// several appear the last one wins.
			run.Stats = stats
		}
	}

	return run, nil
}

// decodeTileRow never fails: every field is optional and a cell that does
// not parse becomes nil. The trailing twelfth cell is an artifact of the
// exporter's trailing comma and carries no data.
func decodeTileRow(record []string) domain.TileRow {
	return domain.TileRow{
		Kill:        optInt(record[0]),
		Timestamp:   optString(record[1]),
		Bot:         optString(record[2]),
		Weapon:      optString(record[3]),
		TTK:         optString(record[4]),
		Shots:       optInt(record[5]),
		Accuracy:    optFloat(record[6]),
		DamageDone:  optInt(record[7]),
		DamageTaken: optInt(record[8]),
		Efficiency:  optFloat(record[9]),
		Cheated:     optBool(record[10]),
	}
}

func decodeStatsRow(record []string) (domain.StatsRow, error) {
	shots, err := strconv.ParseInt(record[1], 10, 64)
	if err != nil {
		return domain.StatsRow{}, fmt.Errorf("stats row shots %q: %w", record[1], err)
	}
	hits, err := strconv.ParseInt(record[2], 10, 64)
	if err != nil {
		return domain.StatsRow{}, fmt.Errorf("stats row hits %q: %w", record[2], err)
	}
	damageDone, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return domain.StatsRow{}, fmt.Errorf("stats row damage done %q: %w", record[3], err)
	}
	damagePossible, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return domain.StatsRow{}, fmt.Errorf("stats row damage possible %q: %w", record[4], err)
	}

	return domain.StatsRow{
		Weapon:         record[0],
		Shots:          shots,
		Hits:           hits,
		DamageDone:     damageDone,
		DamagePossible: damagePossible,
	}, nil
}

func optString(cell string) *string {
	if cell == "" {
		return nil
	}
	return &cell
}

func optInt(cell string) *int64 {
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optFloat(cell string) *float64 {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}

func optBool(cell string) *bool {
	v, err := strconv.ParseBool(cell)
	if err != nil {
		return nil
	}
	return &v
}
