package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aim-tracker/internal/constants"
	"aim-tracker/internal/domain"
	"aim-tracker/internal/fingerprint"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/parser"
	"aim-tracker/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrMissingScenarioTag marks a run file without a "Scenario:"
	// key/value row; such a file cannot be attributed and is not stored.
	ErrMissingScenarioTag = errors.New("run has no Scenario: entry")

	// ErrAmbiguousScenarioTag marks a run file with more than one
	// "Scenario:" entry. Exactly one is required; silently picking the
	// first would attribute the run arbitrarily.
	ErrAmbiguousScenarioTag = errors.New("run has multiple Scenario: entries")
)

const scenarioKey = "Scenario:"

type IngestService struct {
	parser *parser.Parser
	games  *repository.GameRepository
	bus    *notify.Bus
	logger zerolog.Logger

	// mu serializes every ingest end to end, which also serializes
	// scenario lookup-or-create for concurrent files naming the same
	// unseen scenario.
	mu sync.Mutex
}

func NewIngestService(p *parser.Parser, games *repository.GameRepository, bus *notify.Bus, logger zerolog.Logger) *IngestService {
	return &IngestService{
		parser: p,
		games:  games,
		bus:    bus,
		logger: logger,
	}
}

// Ingest stores one parsed run. It reports false without error when a game
// with the same content hash already exists; re-ingesting identical data is
// a no-op.
func (s *IngestService) Ingest(ctx context.Context, run *domain.ParsedRun) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	hash := fingerprint.Run(run)

	exists, err := s.games.ExistsByHash(ctx, hash)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug().Int64("hash", hash).Msg("run already stored, skipping")
		return false, nil
	}

	scenarioName, err := scenarioNameOf(run)
	if err != nil {
		return false, err
	}

	name, err := gonanoid.New()
	if err != nil {
		return false, fmt.Errorf("failed to generate run name: %w", err)
	}

	if err := s.games.InsertGameWithRun(ctx, hash, name, scenarioName, run); err != nil {
		return false, err
	}

	s.logger.Info().
		Int64("hash", hash).
		Str("scenario", scenarioName).
		Str("name", name).
		Int("tiles", len(run.Tiles)).
		Msg("run ingested")
	return true, nil
}

// IngestFile parses and stores one run file, notifying listeners on both
// outcomes. This is the live-watch path; the bulk scan goes through
// IngestDir and stays quiet per file.
func (s *IngestService) IngestFile(ctx context.Context, path string) error {
	run, err := s.parser.ParseFile(path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to parse run file")
		s.bus.Error("Error while parsing the file", err.Error())
		return err
	}

	ingested, err := s.Ingest(ctx, run)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to ingest run")
		s.bus.Error("Error while saving the run", err.Error())
		return err
	}
	if ingested {
		s.bus.NewRun(run)
	}
	return nil
}

// ScanSummary describes one bulk directory scan.
type ScanSummary struct {
	Files    int
	Ingested int
	Skipped  int
	Elapsed  time.Duration
}

// IngestDir enumerates a directory once and ingests every run file in
// enumeration order. Files that fail to parse or store are logged and
// skipped; the scan keeps going.
func (s *IngestService) IngestDir(ctx context.Context, dir string) (ScanSummary, error) {
	start := time.Now()
	summary := ScanSummary{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("failed to read scan directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), constants.RunFileExtension) {
			continue
		}
		summary.Files++

		path := filepath.Join(dir, entry.Name())
		run, err := s.parser.ParseFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unparsable run file")
			summary.Skipped++
			continue
		}

		ingested, err := s.Ingest(ctx, run)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping run that failed to store")
			summary.Skipped++
			continue
		}
		if ingested {
			summary.Ingested++
		} else {
			summary.Skipped++
		}
	}

	summary.Elapsed = time.Since(start)
	s.logger.Info().
		Str("dir", dir).
		Int("files", summary.Files).
		Int("ingested", summary.Ingested).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("directory scan completed")
	return summary, nil
}

// scenarioNameOf extracts the scenario name from the run's key/value rows.
// Exactly one "Scenario:" entry is required.
func scenarioNameOf(run *domain.ParsedRun) (string, error) {
	name := ""
	found := 0
	for _, kv := range run.KeyValues {
		if kv.Key == scenarioKey {
			name = kv.Value
			found++
		}
	}
	switch found {
	case 0:
		return "", ErrMissingScenarioTag
	case 1:
		return name, nil
	default:
		return "", ErrAmbiguousScenarioTag
	}
}
