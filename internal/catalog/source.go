package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/ryori/internal/models"
)

// Columns names the header cells holding each recipe field.
type Columns struct {
	Name        string `yaml:"name"`
	Ingredients string `yaml:"ingredients"`
	URL         string `yaml:"url"`
}

// DefaultColumns matches the published recipe dataset.
var DefaultColumns = Columns{
	Name:        "TranslatedRecipeName",
	Ingredients: "Cleaned-Ingredients",
	URL:         "URL",
}

func (c Columns) withDefaults() Columns {
	if c.Name == "" {
		c.Name = DefaultColumns.Name
	}
	if c.Ingredients == "" {
		c.Ingredients = DefaultColumns.Ingredients
	}
	if c.URL == "" {
		c.URL = DefaultColumns.URL
	}
	return c
}

// columnIndex locates the configured columns in a header row. The URL column is optional.
type columnIndex struct {
	name, ingredients, url int
}

func (c Columns) locate(header []string) (columnIndex, error) {
	idx := columnIndex{name: -1, ingredients: -1, url: -1}
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case c.Name:
			idx.name = i
		case c.Ingredients:
			idx.ingredients = i
		case c.URL:
			idx.url = i
		}
	}
	if idx.name < 0 {
		return idx, fmt.Errorf("missing column %q", c.Name)
	}
	if idx.ingredients < 0 {
		return idx, fmt.Errorf("missing column %q", c.Ingredients)
	}
	return idx, nil
}

func (idx columnIndex) recipe(row []string) models.Recipe {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return models.Recipe{
		Name:        cell(idx.name),
		Ingredients: cell(idx.ingredients),
		URL:         cell(idx.url),
	}
}

// CSVSource reads recipes from a CSV file with a header row.
type CSVSource struct {
	Path    string
	Columns Columns
}

// NewCSVSource creates a CSV source; zero-valued columns fall back to DefaultColumns.
func NewCSVSource(path string, cols Columns) *CSVSource {
	return &CSVSource{Path: path, Columns: cols.withDefaults()}
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) ([]models.Recipe, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return readCSV(ctx, f, s.Columns.withDefaults())
}

func readCSV(ctx context.Context, r io.Reader, cols Columns) ([]models.Recipe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := cols.locate(header)
	if err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		recipes = append(recipes, idx.recipe(row))
	}
	return recipes, nil
}

// XLSXSource reads recipes from a sheet of an Excel workbook. An empty Sheet means the first sheet.
type XLSXSource struct {
	Path    string
	Sheet   string
	Columns Columns
}

// NewXLSXSource creates an XLSX source; zero-valued columns fall back to DefaultColumns.
func NewXLSXSource(path, sheet string, cols Columns) *XLSXSource {
	return &XLSXSource{Path: path, Sheet: sheet, Columns: cols.withDefaults()}
}

// Load implements Source.
func (s *XLSXSource) Load(ctx context.Context) ([]models.Recipe, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := s.Columns.withDefaults().locate(rows[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	recipes := make([]models.Recipe, 0, len(rows)-1)
	for _, row := range rows[1:] {
		recipes = append(recipes, idx.recipe(row))
	}
	return recipes, nil
}

// Format names a file-based catalog format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension; anything but .xlsx is CSV.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// NewFileSource returns the source for a CSV or XLSX file.
func NewFileSource(path string, format Format, sheet string, cols Columns) (Source, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}
	switch format {
	case FormatCSV:
		return NewCSVSource(path, cols), nil
	case FormatXLSX:
		return NewXLSXSource(path, sheet, cols), nil
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s (supported: csv, xlsx)", format)
	}
}
