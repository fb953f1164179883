package extract

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/source"
	"github.com/JonMunkholm/acsextract/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lookupCSV = "File ID,Table ID,Sequence Number,Line Number,Start Position,Total Cells in Table,Total Cells in Sequence,Table Title,Subject Area\n" +
	"ACSSF,B19001,0001,,51,17 CELLS,,HOUSEHOLD INCOME IN THE PAST 12 MONTHS,Income\n" +
	"ACSSF,B19001,0001,,,,,Universe:  Households,Income\n" +
	"ACSSF,B19001,0001,1,,,,Total:,Income\n" +
	"ACSSF,B19001,0001,2,,,,\"Less than $10,000\",Income\n" +
	"ACSSF,B19001,0001,3,,,,\"$10,000 to $14,999\",Income\n" +
	"ACSSF,B19001,0001,4,,,,\"$15,000 to $19,999\",Income\n" +
	"ACSSF,B19001,0001,5,,,,\"$20,000 to $24,999\",Income\n" +
	"ACSSF,B19001,0001,6,,,,\"$25,000 to $29,999\",Income\n"

func geoLine(logrecno, stateCounty, tractBG string) string {
	b := []byte(strings.Repeat(" ", 60))
	copy(b[13:], logrecno)
	copy(b[25:], stateCounty)
	copy(b[40:], tractBG)
	return string(b) + "\n"
}

func dataLine(logrecno string, values map[int]string) string {
	fields := make([]string, 60)
	copy(fields, []string{"ACSSF", "2016e5", "ca", "000", "0001", logrecno})
	for i := 6; i < len(fields); i++ {
		fields[i] = "."
	}
	for off, v := range values {
		fields[off] = v
	}
	return strings.Join(fields, ",") + "\n"
}

// release writes a one-sequence release with one tract and one block group.
func release(t *testing.T) (dir, index string) {
	t.Helper()
	dir = t.TempDir()
	n := source.DefaultNaming

	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("lookup.csv", lookupCSV)
	write(n.GeographyFile(),
		geoLine("0000001", "06001", "400100 ")+geoLine("0000002", "06001", "4001001"))
	write(n.DataFile(source.Estimate, 1),
		dataLine("0000001", map[int]string{52: "10", 53: "20", 54: "30", 55: "40"})+
			dataLine("0000002", map[int]string{52: "1", 53: "2", 54: "3", 55: "4"}))
	write(n.DataFile(source.MarginOfError, 1),
		dataLine("0000001", map[int]string{52: "5", 53: "6", 54: "7", 55: "8"})+
			dataLine("0000002", map[int]string{52: "9", 53: "9", 54: "9", 55: "9"}))

	return dir, filepath.Join(dir, "lookup.csv")
}

func request(dir, index string) Request {
	return Request{
		DataDir:      dir,
		Index:        index,
		Naming:       source.DefaultNaming,
		RecordColumn: 5,
		Tracts:       true,
		Specs:        []string{"B19001_3-6"},
		Output:       filepath.Join(dir, "out.csv"),
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

type fakeStore struct {
	run     store.Run
	columns []string
	rows    []*acs.OutputRow
}

func (f *fakeStore) Save(_ context.Context, run store.Run, columns []string, rows []*acs.OutputRow) error {
	f.run, f.columns, f.rows = run, columns, rows
	return nil
}

func TestService_Run(t *testing.T) {
	dir, index := release(t)
	req := request(dir, index)
	req.Readme = filepath.Join(dir, "README.txt")

	st := &fakeStore{}
	summary, err := NewService(WithStore(st)).Run(context.Background(), req)
	require.NoError(t, err)

	want := [][]string{
		{"B19001_003", "B19001_003_MOE", "B19001_004", "B19001_004_MOE",
			"B19001_005", "B19001_005_MOE", "B19001_006", "B19001_006_MOE", "geoid"},
		{"10", "5", "20", "6", "30", "7", "40", "8", "06001400100"},
	}
	if diff := cmp.Diff(want, readCSV(t, req.Output)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 4, summary.Variables)
	assert.Equal(t, 1, summary.Rows)
	assert.Equal(t, 9, summary.Columns)
	assert.Empty(t, summary.Unmatched)

	readme, err := os.ReadFile(req.Readme)
	require.NoError(t, err)
	assert.Contains(t, string(readme), "README for out.csv")
	assert.Contains(t, string(readme), "B19001_003: Total: $10,000 to $14,999")
	assert.Contains(t, string(readme), "geoid: Census geographic ID for tract")

	assert.Equal(t, summary.RunID, st.run.ID)
	assert.Equal(t, acs.GeoTract, st.run.Geography)
	assert.Equal(t, []string{"B19001_3-6"}, st.run.Specs)
	assert.Len(t, st.rows, 1)
}

func TestService_Run_BlockGroupsLongTitles(t *testing.T) {
	dir, index := release(t)
	req := request(dir, index)
	req.Tracts, req.BlockGroups, req.LongTitles = false, true, true
	req.Specs = []string{"B19001_3", "B99999_*"}

	summary, err := NewService().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"B99999_*"}, summary.Unmatched)

	assert.Equal(t, [][]string{
		{"Margin of Error on Total: $10,000 to $14,999", "Total: $10,000 to $14,999", "geoid"},
		{"9", "1", "060014001001"},
	}, readCSV(t, req.Output))
}

func TestService_Run_ConfigErrorsOpenNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no geography", func(r *Request) { r.Tracts = false }},
		{"both geographies", func(r *Request) { r.BlockGroups = true }},
		{"no specs", func(r *Request) { r.Specs = nil }},
		{"no output", func(r *Request) { r.Output = "" }},
		{"invalid spec", func(r *Request) { r.Specs = []string{"B19001"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The release directory does not exist: any file access would
			// fail with ErrMissingFile instead.
			req := request(filepath.Join(t.TempDir(), "absent"), filepath.Join(t.TempDir(), "absent.csv"))
			tt.mutate(&req)

			_, err := NewService().Run(context.Background(), req)
			assert.ErrorIs(t, err, acs.ErrConfig)
			assert.NotErrorIs(t, err, acs.ErrMissingFile)
		})
	}
}

func TestService_Run_InvalidSpecMapsToSpecCode(t *testing.T) {
	dir, index := release(t)
	req := request(dir, index)
	req.Specs = []string{"B19001_6-3"}

	_, err := NewService().Run(context.Background(), req)
	require.ErrorIs(t, err, acs.ErrInvalidSpec)
	assert.Equal(t, "SPEC001", acs.MapError(err).Code)
}

func TestService_Run_MissingDataFileWritesNothing(t *testing.T) {
	dir, index := release(t)
	require.NoError(t, os.Remove(filepath.Join(dir, source.DefaultNaming.DataFile(source.MarginOfError, 1))))

	req := request(dir, index)
	req.Readme = filepath.Join(dir, "README.txt")

	_, err := NewService().Run(context.Background(), req)
	assert.ErrorIs(t, err, acs.ErrMissingFile)

	assert.NoFileExists(t, req.Output)
	assert.NoFileExists(t, req.Readme)
}

func TestService_Run_UnknownLogicalRecord(t *testing.T) {
	dir, index := release(t)
	path := filepath.Join(dir, source.DefaultNaming.DataFile(source.Estimate, 1))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(dataLine("0009999", nil))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = NewService().Run(context.Background(), request(dir, index))
	assert.ErrorIs(t, err, acs.ErrUnknownRecord)
}

func TestRequest_Geography(t *testing.T) {
	assert.Equal(t, acs.GeoTract, Request{Tracts: true}.Geography())
	assert.Equal(t, acs.GeoBlockGroup, Request{BlockGroups: true}.Geography())
	assert.Equal(t, acs.GeoNone, Request{}.Geography())
	assert.Equal(t, acs.GeoNone, Request{Tracts: true, BlockGroups: true}.Geography())
}

func TestRequestFromConfig(t *testing.T) {
	cfg := &config.Config{Summary: config.SummaryConfig{
		Year: 2017, Span: 1, State: "ny", Index: "idx.csv", Layout: "layout.yaml", RecordColumn: 5,
	}}

	req := RequestFromConfig(cfg)
	assert.Equal(t, source.Naming{Year: 2017, Span: 1, State: "ny"}, req.Naming)
	assert.Equal(t, "idx.csv", req.Index)
	assert.Equal(t, "layout.yaml", req.Layout)
	assert.Equal(t, 5, req.RecordColumn)
}

func TestListing(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(acs.Variable{Table: "B19001", Number: 10, Sequence: 1, Name: "Total: $45,000 to $49,999"})
	idx.Add(acs.Variable{Table: "B19001", Number: 2, Sequence: 1, Name: "Total: Less than $10,000"})
	idx.Add(acs.Variable{Table: "B01003", Number: 1, Sequence: 3, Name: "Total"})

	assert.Equal(t, []string{
		"B01003_001: Total",
		"B19001_002: Total: Less than $10,000",
		"B19001_010: Total: $45,000 to $49,999",
	}, Listing(idx))
}

func TestResolve(t *testing.T) {
	_, index := release(t)

	res, err := Resolve(context.Background(), index, []string{"B19001_*"})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Index.Len())

	_, err = Resolve(context.Background(), index, []string{"nope"})
	assert.ErrorIs(t, err, acs.ErrConfig)
}
