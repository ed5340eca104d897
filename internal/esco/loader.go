package esco

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kiraproject/fs-recommender/internal/profile"
)

// File names of the ESCO classification export inside the data directory.
const (
	occupationsFile    = "occupations.csv"
	iscoGroupsFile     = "ISCOGroups.csv"
	skillsFile         = "skills.csv"
	broaderFile        = "broaderRelationsOccPillar.csv"
	skillRelationsFile = "occupationSkillRelations.csv"
	sectorsFile        = "esco2kldb.csv"
)

// LoadTaxonomy reads the ESCO classification CSVs from dir and builds the
// taxonomy index. Occupations are required; the other tables are optional and
// skipped with a log entry when absent.
func LoadTaxonomy(dir string, logger *zap.Logger) (*Taxonomy, error) {
	occupations, err := readCSVFile(filepath.Join(dir, occupationsFile))
	if err != nil {
		return nil, fmt.Errorf("load occupations: %w", err)
	}

	var concepts []*Concept
	for _, row := range occupations {
		uri := strings.TrimSpace(row["conceptUri"])
		if uri == "" {
			continue
		}
		concepts = append(concepts, &Concept{
			URI:         uri,
			Label:       row["preferredLabel"],
			Description: row["description"],
			Code:        strings.TrimSpace(row["code"]),
		})
	}

	for _, name := range []string{iscoGroupsFile, skillsFile} {
		rows, err := readOptionalCSVFile(filepath.Join(dir, name), logger)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		for _, row := range rows {
			uri := strings.TrimSpace(row["conceptUri"])
			if uri == "" {
				continue
			}
			concepts = append(concepts, &Concept{
				URI:         uri,
				Label:       row["preferredLabel"],
				Description: row["description"],
			})
		}
	}

	broaderRows, err := readOptionalCSVFile(filepath.Join(dir, broaderFile), logger)
	if err != nil {
		return nil, fmt.Errorf("load broader relations: %w", err)
	}
	broader := make(map[string]string, len(broaderRows))
	for _, row := range broaderRows {
		uri := strings.TrimSpace(row["conceptUri"])
		broaderURI := strings.TrimSpace(row["broaderUri"])
		if uri == "" || broaderURI == "" {
			continue
		}
		if _, exists := broader[uri]; !exists {
			broader[uri] = broaderURI
		}
	}

	relationRows, err := readOptionalCSVFile(filepath.Join(dir, skillRelationsFile), logger)
	if err != nil {
		return nil, fmt.Errorf("load skill relations: %w", err)
	}
	relations := make(map[string][]SkillRelation)
	for _, row := range relationRows {
		uri := strings.TrimSpace(row["occupationUri"])
		if uri == "" {
			continue
		}
		relations[uri] = append(relations[uri], SkillRelation{
			SkillURI:     strings.TrimSpace(row["skillUri"]),
			RelationType: strings.TrimSpace(row["relationType"]),
			SkillType:    strings.TrimSpace(row["skillType"]),
		})
	}

	sectorRows, err := readOptionalCSVFile(filepath.Join(dir, sectorsFile), logger)
	if err != nil {
		return nil, fmt.Errorf("load sector mapping: %w", err)
	}
	sectors := make(map[string][]int, len(sectorRows))
	for _, row := range sectorRows {
		uri := strings.TrimSpace(row["conceptUri"])
		if uri == "" {
			continue
		}
		sectors[uri] = parseSectorKeys(row["kldb_keys"])
	}

	taxonomy, err := NewTaxonomy(concepts, broader, relations, sectors)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded taxonomy",
		zap.String("dir", dir),
		zap.Int("concepts", len(concepts)),
		zap.Int("broader_relations", len(broader)),
		zap.Int("sector_mappings", len(sectors)),
	)
	return taxonomy, nil
}

// LoadOccupations reads the normalized occupation FutureSkill profiles and
// annotates each with its code, sectors and broader uri from the taxonomy.
// A row that cannot resolve the FS schema aborts the whole load.
func LoadOccupations(path string, taxonomy *Taxonomy, logger *zap.Logger) (*Occupations, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("load occupation profiles: %w", err)
	}

	pool := &Occupations{Items: make([]*Occupation, 0, len(rows))}
	for i, row := range rows {
		uri := strings.TrimSpace(row["conceptUri"])
		if uri == "" {
			return nil, fmt.Errorf("%w: occupation profile row %d has no conceptUri", profile.ErrSchemaMismatch, i+1)
		}

		skills, err := profile.VectorFromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("occupation profile %s: %w", uri, err)
		}

		code, err := taxonomy.Code(uri)
		if err != nil {
			logger.Warn("occupation profile without taxonomy entry", zap.String("uri", uri))
		}

		occupation := &Occupation{
			URI:     uri,
			Code:    code,
			Skills:  skills,
			Sectors: taxonomy.Sectors(uri),
		}
		if broader, ok := taxonomy.Broader(uri); ok {
			occupation.BroaderURI = broader
		}
		pool.Items = append(pool.Items, occupation)
	}

	logger.Info("loaded occupation profiles",
		zap.String("path", path),
		zap.Int("count", pool.Len()),
	)
	return pool, nil
}

// parseSectorKeys parses kldb key cells like "[3 5 9]", "3;5" or "7".
func parseSectorKeys(raw string) []int {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	codes := make([]int, 0, len(fields))
	for _, f := range fields {
		code, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

func readCSVFile(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return profile.ReadRecords(file)
}

func readOptionalCSVFile(path string, logger *zap.Logger) ([]map[string]string, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("optional taxonomy table not found", zap.String("path", path))
			return nil, nil
		}
		return nil, err
	}
	return rows, nil
}
