package taxonomy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var testHeader = []string{"Dimensão", "Fatores", "Subfator 1", "Subfator 2", "Recomendação 1", "Recomendação 2", "Bag de termos", "Bag of terms"}

var testRows = [][]string{
	{"Fadiga", "Horas extras", "Jornada", "", "Limitar horas extras", "Rodízio de turnos", "fadiga; hora extra", "fatigue; overtime"},
	{"Comunicação", "Falha de comunicação", "", "", "Padronizar passagem de turno", "", "falha de comunicação;ruído", "miscommunication"},
	{"", "Sem dimensão", "", "", "", "", "x", "y"},
	{"", "", "", "", "", "", "", ""},
}

const testCSV = "Dimensão;Fatores;Subfator 1;Subfator 2;Recomendação 1;Recomendação 2;Bag de termos;Bag of terms\n" +
	"Fadiga;Horas extras;Jornada;;Limitar horas extras;Rodízio de turnos;\"fadiga; hora extra\";\"fatigue; overtime\"\n"

// writeCSV writes rows as a ";"-separated file, quoting term cells.
func writeCSV(t *testing.T, name string, header []string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var data []byte
	for _, r := range append([][]string{header}, rows...) {
		for i, c := range r {
			if i > 0 {
				data = append(data, ';')
			}
			data = append(data, '"')
			data = append(data, c...)
			data = append(data, '"')
		}
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeXLSX(t *testing.T, name, sheet string, header []string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("SetSheetName: %v", err)
		}
	}
	for i, r := range append([][]string{header}, rows...) {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func csvSource(path string) Source {
	return Source{Location: path, Format: Format{Delimiter: ";"}}
}

func TestLoad_CSV(t *testing.T) {
	path := writeCSV(t, "taxonomia.csv", testHeader, testRows)

	tbl, err := Load(context.Background(), csvSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("entries = %d, want 2", tbl.Len())
	}
	if tbl.Skipped() != 1 {
		t.Errorf("skipped = %d, want 1 (blank rows are not counted)", tbl.Skipped())
	}

	e := tbl.Entries[0]
	if e.Dimension != "Fadiga" || e.Factor != "Horas extras" || e.Subfactor1 != "Jornada" {
		t.Errorf("entry 0 = %+v", e)
	}
	if e.Recommendation2 != "Rodízio de turnos" {
		t.Errorf("Recommendation2 = %q, want original text kept", e.Recommendation2)
	}
	if got := e.TermBag(Portuguese); !reflect.DeepEqual(got, []string{"fadiga", "hora extra"}) {
		t.Errorf("pt terms = %q", got)
	}
	if got := e.TermBag(English); !reflect.DeepEqual(got, []string{"fatigue", "overtime"}) {
		t.Errorf("en terms = %q", got)
	}
	if got := tbl.Entries[1].TermBag(Portuguese); !reflect.DeepEqual(got, []string{"falha de comunicacao", "ruido"}) {
		t.Errorf("entry 1 pt terms = %q, want accents transliterated", got)
	}
	if !reflect.DeepEqual(tbl.AvailableLanguages(), []Language{Portuguese, English}) {
		t.Errorf("languages = %v", tbl.AvailableLanguages())
	}
}

func TestLoad_XLSXMatchesCSV(t *testing.T) {
	csvPath := writeCSV(t, "taxonomia.csv", testHeader, testRows)
	xlsxPath := writeXLSX(t, "taxonomia.xlsx", "Taxonomia", testHeader, testRows)

	fromCSV, err := Load(context.Background(), csvSource(csvPath))
	if err != nil {
		t.Fatalf("Load csv: %v", err)
	}
	fromXLSX, err := Load(context.Background(), Source{Location: xlsxPath})
	if err != nil {
		t.Fatalf("Load xlsx: %v", err)
	}
	if !reflect.DeepEqual(fromCSV.Entries, fromXLSX.Entries) {
		t.Errorf("xlsx entries differ from csv:\n csv  %+v\n xlsx %+v", fromCSV.Entries, fromXLSX.Entries)
	}
}

func TestLoad_XLSXNamedSheet(t *testing.T) {
	path := writeXLSX(t, "taxonomia.xlsx", "Fatores", testHeader, testRows[:1])

	if _, err := Load(context.Background(), Source{Location: path, Format: Format{Sheet: "Fatores"}}); err != nil {
		t.Fatalf("Load named sheet: %v", err)
	}
	_, err := Load(context.Background(), Source{Location: path, Format: Format{Sheet: "Missing"}})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("missing sheet: err = %v, want ErrSourceUnavailable", err)
	}
}

func TestLoad_SingleLanguageColumn(t *testing.T) {
	header := []string{"Dimensão", "Fatores", "Bag of terms"}
	path := writeCSV(t, "en.csv", header, [][]string{{"Fatigue", "Overtime", "fatigue;tired"}})

	tbl, err := Load(context.Background(), csvSource(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.HasLanguage(Portuguese) || !tbl.HasLanguage(English) {
		t.Errorf("languages = %v, want [en]", tbl.AvailableLanguages())
	}
	if tbl.Entries[0].Subfactor1 != "" {
		t.Errorf("absent optional column should give empty string, got %q", tbl.Entries[0].Subfactor1)
	}
}

func TestLoad_CustomColumns(t *testing.T) {
	header := []string{"dim", "factor", "terms"}
	path := writeCSV(t, "custom.csv", header, [][]string{{"Fadiga", "Sono", "sono;cansaço"}})

	src := Source{Location: path, Format: Format{
		Delimiter: ";",
		Columns:   Columns{Dimension: "dim", Factor: "factor", TermsPT: "terms"},
	}}
	tbl, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.Entries[0].TermBag(Portuguese); !reflect.DeepEqual(got, []string{"sono", "cansaco"}) {
		t.Errorf("terms = %q", got)
	}
}

func TestLoad_Latin1(t *testing.T) {
	enc, err := charmap.ISO8859_1.NewEncoder().String(testCSV)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "latin1.csv")
	os.WriteFile(path, []byte(enc), 0o644)

	src := Source{Location: path, Format: Format{Delimiter: ";", Encoding: "iso-8859-1"}}
	tbl, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Entries[0].Recommendation2 != "Rodízio de turnos" {
		t.Errorf("Recommendation2 = %q, want transcoded text", tbl.Entries[0].Recommendation2)
	}
}

func TestLoad_DecomposedHeader(t *testing.T) {
	// "Dimensão" with a combining tilde.
	header := append([]string{"Dimensa\u0303o"}, testHeader[1:]...)
	path := writeCSV(t, "nfd.csv", header, testRows[:1])

	if _, err := Load(context.Background(), csvSource(path)); err != nil {
		t.Fatalf("Load with decomposed header: %v", err)
	}
}

func TestLoad_MissingSource(t *testing.T) {
	_, err := Load(context.Background(), Source{Location: filepath.Join(t.TempDir(), "nope.xlsx")})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}

	_, err = Load(context.Background(), Source{})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("empty location: err = %v, want ErrSourceUnavailable", err)
	}
}

func TestLoad_InvalidShape(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"missing dimension column", []string{"Fatores", "Bag de termos"}, [][]string{{"F", "t"}}},
		{"no term columns", []string{"Dimensão", "Fatores"}, [][]string{{"D", "F"}}},
		{"no usable rows", testHeader, [][]string{{"", "", "", "", "", "", "t", "t"}}},
	}
	for _, tt := range tests {
		path := writeCSV(t, "bad.csv", tt.header, tt.rows)
		_, err := Load(context.Background(), csvSource(path))
		if !errors.Is(err, ErrInvalidTaxonomy) {
			t.Errorf("%s: err = %v, want ErrInvalidTaxonomy", tt.name, err)
		}
		if errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("%s: shape errors must not report the source as unavailable", tt.name)
		}
	}
}

func TestLoad_URL(t *testing.T) {
	xlsxPath := writeXLSX(t, "remote.xlsx", "Sheet1", testHeader, testRows)
	data, err := os.ReadFile(xlsxPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/TaxonomiaCP_Por.xlsx" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer ts.Close()

	tbl, err := Load(context.Background(), Source{Location: ts.URL + "/TaxonomiaCP_Por.xlsx?raw=true"})
	if err != nil {
		t.Fatalf("Load URL: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("entries = %d, want 2", tbl.Len())
	}

	_, err = Load(context.Background(), Source{Location: ts.URL + "/missing.xlsx"})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("404: err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetch_Retry(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	data, err := fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch with retries: %v", err)
	}
	if string(data) != "ok" || attempts != 3 {
		t.Errorf("data = %q attempts = %d, want ok after 3", data, attempts)
	}
}

func TestFetch_TooLarge(t *testing.T) {
	defer func(n int64) { maxSourceSize = n }(maxSourceSize)
	maxSourceSize = 16

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 17)))
	}))
	defer ts.Close()

	_, err := Load(context.Background(), Source{Location: ts.URL + "/big.xlsx"})
	if !errors.Is(err, ErrSourceTooLarge) || !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceTooLarge and ErrSourceUnavailable", err)
	}

	maxSourceSize = 17
	if data, err := fetch(context.Background(), ts.URL); err != nil || len(data) != 17 {
		t.Errorf("at the limit: len = %d, err = %v", len(data), err)
	}
}

func TestKindFromLocation(t *testing.T) {
	tests := []struct {
		loc, want string
	}{
		{"TaxonomiaCP_Por.xlsx", "xlsx"},
		{"https://example.com/t.XLSX?raw=1", "xlsx"},
		{"t.tsv", "tsv"},
		{"t.csv", "csv"},
		{"t", "csv"},
	}
	for _, tt := range tests {
		if got := kindFromLocation(tt.loc); got != tt.want {
			t.Errorf("kindFromLocation(%q) = %q, want %q", tt.loc, got, tt.want)
		}
	}
}
