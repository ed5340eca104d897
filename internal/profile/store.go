package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// ErrSchemaMismatch is returned when input data cannot be mapped onto the
// fixed 10-dimension FutureSkill schema. It must reach the caller as a
// validation failure, never terminate the process.
var ErrSchemaMismatch = errors.New("profile schema mismatch")

// legacyFSColumns maps the descriptive column names of older profile exports
// to the canonical FS columns.
var legacyFSColumns = map[string]string{
	"self_initiative":      "FS1",
	"flexibility":          "FS2",
	"leadership":           "FS3",
	"communication":        "FS4",
	"creativity":           "FS5",
	"customer_orientation": "FS6",
	"organization":         "FS7",
	"problem_solving":      "FS8",
	"resilience":           "FS9",
	"goal_orientation":     "FS10",
}

// NormalizeFSColumns rewrites legacy descriptive keys of a record to the
// canonical FS1..FS10 names. The input map is not modified.
func NormalizeFSColumns(rec map[string]string) map[string]string {
	out := make(map[string]string, len(rec))
	for key, value := range rec {
		if canonical, ok := legacyFSColumns[key]; ok {
			key = canonical
		}
		out[key] = value
	}
	return out
}

// VectorFromRecord resolves the ten FS columns of a record into a SkillVector.
// Legacy descriptive column names are accepted. A missing or unparsable column
// is a schema mismatch.
func VectorFromRecord(rec map[string]string) (SkillVector, error) {
	rec = NormalizeFSColumns(rec)

	var v SkillVector
	for i, col := range FSColumns {
		raw, ok := rec[col]
		if !ok {
			return v, fmt.Errorf("%w: column %s not found", ErrSchemaMismatch, col)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return v, fmt.Errorf("%w: column %s: %v", ErrSchemaMismatch, col, err)
		}
		v[i] = value
	}
	return v, nil
}

// SectorResolver maps a declared sector name to its numeric code.
type SectorResolver func(name string) (int, bool)

// Store loads user and peer profiles from CSV exports.
type Store struct {
	logger  *zap.Logger
	resolve SectorResolver
}

func NewStore(logger *zap.Logger, resolve SectorResolver) *Store {
	return &Store{logger: logger, resolve: resolve}
}

// record is the loose CSV row shape before validation.
type record struct {
	ID              string `mapstructure:"user_id"`
	Interests       string `mapstructure:"professional_interests"`
	Recommendations string `mapstructure:"job_recommendations"`
	Ratings         string `mapstructure:"job_ratings"`
	History         string `mapstructure:"job_history"`
}

// LoadCSV reads a profile CSV and returns the corpus. Every row must resolve
// the ten FS columns; anything else is a schema mismatch for the whole file.
func (s *Store) LoadCSV(path string) (*Corpus, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer file.Close()

	rows, err := ReadRecords(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}

	corpus := &Corpus{Users: make([]*UserProfile, 0, len(rows))}
	for i, row := range rows {
		user, err := s.decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("profile row %d: %w", i+1, err)
		}
		corpus.Users = append(corpus.Users, user)
	}

	s.logger.Info("loaded user profiles",
		zap.String("path", path),
		zap.Int("count", corpus.Len()),
	)
	return corpus, nil
}

func (s *Store) decodeRow(row map[string]string) (*UserProfile, error) {
	skills, err := VectorFromRecord(row)
	if err != nil {
		return nil, err
	}

	var rec record
	cfg := &mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(row); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	user := &UserProfile{
		ID:                strings.TrimSpace(rec.ID),
		Skills:            skills,
		Preferences:       s.parseInterests(rec.Interests),
		RecommendationLog: splitList(rec.Recommendations, ","),
	}

	for _, raw := range splitList(rec.Ratings, ",") {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: rating %q: %v", ErrSchemaMismatch, raw, err)
		}
		user.RatingLog = append(user.RatingLog, rating)
	}

	history, err := parseHistory(rec.History)
	if err != nil {
		return nil, err
	}
	user.JobHistory = history

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// parseInterests resolves declared sectors into numeric codes. Entries are
// semicolon separated since the sector names themselves contain commas. Both
// numeric codes and full names are accepted; unknown names are logged and
// dropped.
func (s *Store) parseInterests(raw string) []int {
	var codes []int
	for _, entry := range splitList(raw, ";") {
		if code, err := strconv.Atoi(entry); err == nil {
			codes = append(codes, code)
			continue
		}
		if s.resolve != nil {
			if code, ok := s.resolve(entry); ok {
				codes = append(codes, code)
				continue
			}
		}
		s.logger.Warn("unknown sector in professional interests", zap.String("sector", entry))
	}
	return codes
}

// parseHistory parses "uri=1;uri=0" style job history entries.
func parseHistory(raw string) ([]HistoryEntry, error) {
	var history []HistoryEntry
	for _, entry := range splitList(raw, ";") {
		uri, liked, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("%w: job history entry %q has no reaction", ErrSchemaMismatch, entry)
		}
		switch strings.TrimSpace(liked) {
		case "1", "true":
			history = append(history, HistoryEntry{URI: strings.TrimSpace(uri), Liked: true})
		case "0", "false":
			history = append(history, HistoryEntry{URI: strings.TrimSpace(uri), Liked: false})
		default:
			return nil, fmt.Errorf("%w: job history reaction %q", ErrSchemaMismatch, liked)
		}
	}
	return history, nil
}

func splitList(raw, sep string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReadRecords reads a headered CSV stream into one map per row.
func ReadRecords(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var rows []map[string]string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[strings.TrimSpace(col)] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
