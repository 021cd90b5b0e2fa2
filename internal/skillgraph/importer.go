package skillgraph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Spreadsheet layout for LoadDraft on .xlsx files.
const (
	SkillsSheet    = "skills"
	TemplatesSheet = "templates"
)

// LoadDraft reads a draft graph from a YAML, JSON, or XLSX file, chosen by
// file extension.
func LoadDraft(path string) (*Draft, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadStructured(path, yaml.Unmarshal)
	case ".json":
		return loadStructured(path, json.Unmarshal)
	case ".xlsx":
		return loadSpreadsheet(path)
	default:
		return nil, fmt.Errorf("unsupported graph file %q (want .yaml, .json, or .xlsx)", path)
	}
}

func loadStructured(path string, unmarshal func([]byte, any) error) (*Draft, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	var d Draft
	if err := unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse graph file %s: %w", path, err)
	}
	if d.Title == "" {
		d.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &d, nil
}

// loadSpreadsheet reads the "skills" sheet (id, name, description, difficulty,
// prerequisites, misconceptions) and the optional "templates" sheet
// (node_id, modality, prompt, answer, choices, rubric). The first row of each
// sheet is a header. Prerequisites are comma separated, misconceptions are
// "tag:severity" pairs separated by semicolons, choices are separated by "|".
func loadSpreadsheet(path string) (*Draft, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SkillsSheet)
	if err != nil {
		return nil, fmt.Errorf("read %q sheet: %w", SkillsSheet, err)
	}

	d := &Draft{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	index := make(map[string]int)
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}
		n := DraftNode{
			ID:          strings.TrimSpace(cell(row, 0)),
			Name:        cell(row, 1),
			Description: cell(row, 2),
		}
		if s := strings.TrimSpace(cell(row, 3)); s != "" {
			n.Difficulty, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: difficulty %q: %w", i+1, s, err)
			}
		}
		n.Prerequisites = splitList(cell(row, 4), ",")
		for _, pair := range splitList(cell(row, 5), ";") {
			tag, sev, _ := strings.Cut(pair, ":")
			severity, err := ParseSeverity(strings.TrimSpace(sev))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			n.Misconceptions = append(n.Misconceptions, Misconception{Tag: strings.TrimSpace(tag), Severity: severity})
		}
		index[n.ID] = len(d.Nodes)
		d.Nodes = append(d.Nodes, n)
	}

	if !hasSheet(f.GetSheetList(), TemplatesSheet) {
		return d, nil
	}
	rows, err = f.GetRows(TemplatesSheet)
	if err != nil {
		return nil, fmt.Errorf("read %q sheet: %w", TemplatesSheet, err)
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		nodeID := strings.TrimSpace(cell(row, 0))
		pos, ok := index[nodeID]
		if !ok {
			return nil, fmt.Errorf("templates row %d: unknown node %q", i+1, nodeID)
		}
		mod := Modality(strings.TrimSpace(cell(row, 1)))
		if !mod.Valid() {
			return nil, fmt.Errorf("templates row %d: unknown modality %q", i+1, mod)
		}
		if d.Nodes[pos].Templates == nil {
			d.Nodes[pos].Templates = make(map[Modality]AssessmentTemplate)
		}
		d.Nodes[pos].Templates[mod] = AssessmentTemplate{
			Prompt:  cell(row, 2),
			Answer:  cell(row, 3),
			Choices: splitList(cell(row, 4), "|"),
			Rubric:  cell(row, 5),
		}
	}
	return d, nil
}

func hasSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
