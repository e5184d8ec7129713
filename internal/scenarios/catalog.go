// Package scenarios holds the embedded training catalog: platforms, the
// scenarios under them, and each scenario's briefing, hints, dataset and
// reference solution.
package scenarios

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/realnamesareboring/KQLified/internal/dataset"
	"github.com/realnamesareboring/KQLified/internal/grader"
	"github.com/realnamesareboring/KQLified/internal/query"
	"github.com/realnamesareboring/KQLified/internal/slugs"
)

const (
	defaultSyllabusPath  = "defaults/syllabus.yaml"
	defaultScenariosDir  = "defaults/scenarios"
	scenarioFile         = "scenario.md"
	dataFile             = "data.csv"
	solutionFile         = "solution.kql"
	defaultTable         = "SigninLogs"
	defaultDifficulty    = "beginner"
	statusAvailable      = "available"
	statusComingSoon     = "coming-soon"
	frontmatterDelimiter = "---"
)

//go:embed defaults/syllabus.yaml defaults/scenarios
var defaultScenariosFS embed.FS

// ErrNotFound is returned when a scenario reference matches nothing.
var ErrNotFound = errors.New("scenario not found")

// Catalog is the loaded syllabus.
type Catalog struct {
	Platforms []Platform
	Scenarios map[string]Scenario

	fsys fs.FS
}

// Platform groups scenarios for one log source.
type Platform struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Icon      string   `json:"icon,omitempty"`
	Scenarios []string `json:"scenarios"`
}

// Scenario is one detection exercise.
type Scenario struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Platform     string              `json:"platform"`
	Difficulty   string              `json:"difficulty"`
	Duration     string              `json:"duration,omitempty"`
	Points       int                 `json:"points"`
	Status       string              `json:"status"`
	Table        string              `json:"table"`
	Hint         string              `json:"hint,omitempty"`
	Description  string              `json:"description"`
	Hints        []Entry             `json:"hints,omitempty"`
	Walkthrough  []Entry             `json:"walkthrough,omitempty"`
	Solution     string              `json:"-"`
	Expectations grader.Expectations `json:"expectations"`
	Gate         *grader.Gate        `json:"gate,omitempty"`
	Columns      *query.ColumnMap    `json:"columns,omitempty"`
}

// Available reports whether the scenario can be attempted.
func (s Scenario) Available() bool {
	return s.Status == statusAvailable
}

// ColumnMap returns the scenario's summarize columns with defaults filled.
func (s Scenario) ColumnMap() query.ColumnMap {
	if s.Columns == nil {
		return query.DefaultColumnMap()
	}
	return s.Columns.WithDefaults()
}

// Submission builds a grader submission for raw against ds.
func (s Scenario) Submission(raw string, ds *dataset.Dataset) grader.Submission {
	cols := s.ColumnMap()
	return grader.Submission{
		ScenarioID:   s.ID,
		Query:        raw,
		Dataset:      ds,
		Expectations: s.Expectations,
		Gate:         s.Gate,
		Columns:      &cols,
	}
}

type syllabusFile struct {
	Platforms []syllabusPlatform `yaml:"platforms"`
}

type syllabusPlatform struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Icon      string   `yaml:"icon"`
	Scenarios []string `yaml:"scenarios"`
}

type scenarioFrontmatter struct {
	Title      string              `yaml:"title"`
	Difficulty string              `yaml:"difficulty"`
	Duration   string              `yaml:"duration"`
	Points     int                 `yaml:"points"`
	Status     string              `yaml:"status"`
	Table      string              `yaml:"table"`
	Hint       string              `yaml:"hint"`
	Expect     grader.Expectations `yaml:"expect"`
	Gate       *grader.Gate        `yaml:"gate"`
	Columns    *query.ColumnMap    `yaml:"columns"`
}

// Load loads the embedded catalog.
func Load() (*Catalog, error) {
	return loadCatalogFromFS(defaultScenariosFS)
}

func loadCatalogFromFS(fsys fs.FS) (*Catalog, error) {
	syllabus, err := readSyllabus(fsys)
	if err != nil {
		return nil, err
	}
	if len(syllabus.Platforms) == 0 {
		return nil, fmt.Errorf("syllabus has no platforms")
	}

	catalog := &Catalog{
		Platforms: make([]Platform, 0, len(syllabus.Platforms)),
		Scenarios: make(map[string]Scenario),
		fsys:      fsys,
	}

	seenPlatforms := make(map[string]bool, len(syllabus.Platforms))
	seenScenarios := map[string]string{}

	for i, raw := range syllabus.Platforms {
		platformID := strings.TrimSpace(raw.ID)
		name := strings.TrimSpace(raw.Name)
		if platformID == "" {
			return nil, fmt.Errorf("platform %d is missing id", i)
		}
		if name == "" {
			return nil, fmt.Errorf("platform %q is missing name", platformID)
		}
		if seenPlatforms[platformID] {
			return nil, fmt.Errorf("duplicate platform id: %q", platformID)
		}
		seenPlatforms[platformID] = true
		if len(raw.Scenarios) == 0 {
			return nil, fmt.Errorf("platform %q has no scenarios", platformID)
		}

		ids := make([]string, 0, len(raw.Scenarios))
		for _, rawID := range raw.Scenarios {
			id := strings.TrimSpace(rawID)
			if id == "" {
				return nil, fmt.Errorf("platform %q contains an empty scenario id", platformID)
			}
			if prior, exists := seenScenarios[id]; exists {
				if prior == platformID {
					return nil, fmt.Errorf("platform %q contains duplicate scenario id %q", platformID, id)
				}
				return nil, fmt.Errorf("scenario id %q appears in multiple platforms (%q, %q)", id, prior, platformID)
			}
			seenScenarios[id] = platformID

			scenario, err := loadScenario(fsys, id, platformID)
			if err != nil {
				return nil, err
			}
			catalog.Scenarios[id] = scenario
			ids = append(ids, id)
		}

		catalog.Platforms = append(catalog.Platforms, Platform{
			ID:        platformID,
			Name:      name,
			Icon:      strings.TrimSpace(raw.Icon),
			Scenarios: ids,
		})
	}

	return catalog, nil
}

func readSyllabus(fsys fs.FS) (syllabusFile, error) {
	var syllabus syllabusFile
	raw, err := fs.ReadFile(fsys, defaultSyllabusPath)
	if err != nil {
		return syllabus, fmt.Errorf("read syllabus: %w", err)
	}
	if err := yaml.Unmarshal(raw, &syllabus); err != nil {
		return syllabus, fmt.Errorf("parse syllabus: %w", err)
	}
	return syllabus, nil
}

func loadScenario(fsys fs.FS, id, platformID string) (Scenario, error) {
	dir := path.Join(defaultScenariosDir, id)

	raw, err := fs.ReadFile(fsys, path.Join(dir, scenarioFile))
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %q: %w", id, err)
	}
	fmRaw, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", id, err)
	}

	var fm scenarioFrontmatter
	if err := yaml.Unmarshal([]byte(fmRaw), &fm); err != nil {
		return Scenario{}, fmt.Errorf("parse frontmatter for scenario %q: %w", id, err)
	}
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		return Scenario{}, fmt.Errorf("scenario %q is missing required frontmatter field 'title'", id)
	}

	status := strings.TrimSpace(fm.Status)
	if status == "" {
		status = statusAvailable
	}
	if status != statusAvailable && status != statusComingSoon {
		return Scenario{}, fmt.Errorf("scenario %q has unknown status %q", id, status)
	}

	solution, err := fs.ReadFile(fsys, path.Join(dir, solutionFile))
	if err != nil && status == statusAvailable {
		return Scenario{}, fmt.Errorf("read solution for scenario %q: %w", id, err)
	}

	brief := parseBriefing(body)

	s := Scenario{
		ID:           id,
		Title:        title,
		Platform:     platformID,
		Difficulty:   firstNonEmpty(fm.Difficulty, defaultDifficulty),
		Duration:     strings.TrimSpace(fm.Duration),
		Points:       fm.Points,
		Status:       status,
		Table:        firstNonEmpty(fm.Table, defaultTable),
		Hint:         strings.TrimSpace(fm.Hint),
		Description:  brief.Description,
		Hints:        brief.Hints,
		Walkthrough:  brief.Walkthrough,
		Solution:     strings.TrimSpace(string(solution)),
		Expectations: fm.Expect,
		Gate:         fm.Gate,
		Columns:      fm.Columns,
	}
	return s, nil
}

func firstNonEmpty(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// Ordered returns scenarios in syllabus order.
func (c *Catalog) Ordered() []Scenario {
	var out []Scenario
	for _, p := range c.Platforms {
		for _, id := range p.Scenarios {
			out = append(out, c.Scenarios[id])
		}
	}
	return out
}

// Platform returns the platform with the given ID.
func (c *Catalog) Platform(id string) (Platform, bool) {
	for _, p := range c.Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// Lookup resolves ref to a scenario. ref may be the ID, the title, or
// anything that slugs to either.
func (c *Catalog) Lookup(ref string) (Scenario, error) {
	ref = strings.TrimSpace(ref)
	if s, ok := c.Scenarios[ref]; ok {
		return s, nil
	}

	want := slugs.ID(ref)
	for _, s := range c.Ordered() {
		if s.ID == want || slugs.ID(s.Title) == want {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// Suggestions returns scenario IDs that share a word with ref, for error
// messages.
func (c *Catalog) Suggestions(ref string) []string {
	words := strings.Split(slugs.ID(ref), "-")
	var out []string
	for _, s := range c.Ordered() {
		candidate := s.ID + "-" + slugs.ID(s.Title)
		for _, w := range words {
			if len(w) >= 3 && strings.Contains(candidate, w) {
				out = append(out, s.ID)
				break
			}
		}
	}
	return out
}

// Dataset loads the scenario's log table.
func (c *Catalog) Dataset(s Scenario) (*dataset.Dataset, error) {
	f, err := c.fsys.Open(path.Join(defaultScenariosDir, s.ID, dataFile))
	if err != nil {
		return nil, fmt.Errorf("open data for scenario %q: %w", s.ID, err)
	}
	defer f.Close()

	ds, err := dataset.ReadCSV(f, s.Table)
	if err != nil {
		return nil, fmt.Errorf("load data for scenario %q: %w", s.ID, err)
	}
	return ds, nil
}
