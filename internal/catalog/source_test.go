package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const datasetCSV = `TranslatedRecipeName,TranslatedIngredients,Cleaned-Ingredients,URL
Masala Karela Recipe,"1 tbsp oil, 2 onions","salt,amchur (dry mango powder),karela (bitter gourd/ pavakkai)",https://example.com/karela
Spicy Tomato Rice,"2 cups rice","tomato,rice,red chillies",https://example.com/rice
`

func TestCSVSource_DefaultColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.csv")
	require.NoError(t, os.WriteFile(path, []byte(datasetCSV), 0644))

	recipes, err := NewCSVSource(path, Columns{}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Masala Karela Recipe", recipes[0].Name)
	assert.Equal(t, "salt,amchur (dry mango powder),karela (bitter gourd/ pavakkai)", recipes[0].Ingredients)
	assert.Equal(t, "https://example.com/rice", recipes[1].URL)
}

func TestCSVSource_CustomColumnsAndMissingURL(t *testing.T) {
	data := "title,items\nToast,\"bread, butter\"\n"
	recipes, err := readCSV(context.Background(), strings.NewReader(data), Columns{Name: "title", Ingredients: "items"}.withDefaults())
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Toast", recipes[0].Name)
	assert.Equal(t, "bread, butter", recipes[0].Ingredients)
	assert.Empty(t, recipes[0].URL)
}

func TestCSVSource_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := readCSV(ctx, strings.NewReader(""), DefaultColumns)
	assert.ErrorContains(t, err, "no header")

	_, err = readCSV(ctx, strings.NewReader("TranslatedRecipeName,URL\nx,y\n"), DefaultColumns)
	assert.ErrorContains(t, err, "Cleaned-Ingredients")

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), Columns{}).Load(ctx)
	assert.Error(t, err)
}

func TestCSVSource_BOMHeader(t *testing.T) {
	data := "\ufeffTranslatedRecipeName,Cleaned-Ingredients\nDal,\"lentils,salt\"\n"
	recipes, err := readCSV(context.Background(), strings.NewReader(data), DefaultColumns)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Dal", recipes[0].Name)
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]string{"URL", "TranslatedRecipeName", "Cleaned-Ingredients"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]string{"https://example.com/a", "Aloo Gobi", "potato,cauliflower"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]string{"https://example.com/b", "Jeera Rice", "rice,cumin"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	src, err := NewFileSource(path, FormatAuto, "", Columns{})
	require.NoError(t, err)
	recipes, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Aloo Gobi", recipes[0].Name)
	assert.Equal(t, "rice,cumin", recipes[1].Ingredients)
	assert.Equal(t, "https://example.com/a", recipes[0].URL)

	_, err = NewXLSXSource(path, "Missing", Columns{}).Load(context.Background())
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("data/Recipes.XLSX"))
	assert.Equal(t, FormatCSV, DetectFormat("data/recipes.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("data/recipes"))

	_, err := NewFileSource("x.json", Format("json"), "", Columns{})
	assert.Error(t, err)
}
