package assemble

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/source"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFiles serves data files from memory, keyed by "e1", "m1", ...
type memFiles map[string]string

func (m memFiles) OpenData(_ context.Context, kind source.Kind, seq int) (io.ReadCloser, int64, error) {
	key := fmt.Sprintf("%s%d", kind.Prefix(), seq)
	data, ok := m[key]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", acs.ErrMissingFile, key)
	}
	return io.NopCloser(strings.NewReader(data)), int64(len(data)), nil
}

// dataLine builds a data record with the logical record number in column 5
// and values placed at the given offsets; other fields are "0".
func dataLine(logrecno string, width int, values map[int]string) string {
	fields := make([]string, width)
	copy(fields, []string{"ACSSF", "2016e5", "ca", "000", "0001", logrecno})
	for i := 6; i < width; i++ {
		fields[i] = "0"
	}
	for off, v := range values {
		fields[off] = v
	}
	return strings.Join(fields, ",") + "\n"
}

var testGeo = acs.GeographyMap{
	"0000001": {LogicalRecordNumber: "0000001", Geoid: "06001400100", Type: acs.GeoTract},
	"0000002": {LogicalRecordNumber: "0000002", Geoid: "060014001001", Type: acs.GeoBlockGroup},
	"0000003": {LogicalRecordNumber: "0000003", Geoid: "06001400200", Type: acs.GeoTract},
}

func variable(table string, number, offset, seq int, name string) acs.Variable {
	return acs.Variable{Table: table, Number: number, Offset: offset, Sequence: seq, Name: name}
}

func rowsByGeoid(res *Result) map[string]map[string]string {
	out := make(map[string]map[string]string, len(res.Rows))
	for _, r := range res.Rows {
		out[r.Geoid] = r.Values
	}
	return out
}

func TestAssemble_EndToEnd(t *testing.T) {
	idx := acs.NewIndex()
	for n := 3; n <= 6; n++ {
		idx.Add(variable("B19001", n, 50+n-1, 1, ""))
	}

	est := dataLine("0000001", 60, map[int]string{52: "10", 53: "20", 54: "30", 55: "40"})
	moe := dataLine("0000001", 60, map[int]string{52: "1", 53: "2", 54: "3", 55: "4"})

	res, err := Assemble(context.Background(), idx, testGeo, memFiles{"e1": est, "m1": moe},
		Options{Geography: acs.GeoTract})
	require.NoError(t, err)

	want := map[string]map[string]string{
		"06001400100": {
			"B19001_003": "10", "B19001_004": "20", "B19001_005": "30", "B19001_006": "40",
			"B19001_003_MOE": "1", "B19001_004_MOE": "2", "B19001_005_MOE": "3", "B19001_006_MOE": "4",
		},
	}
	if diff := cmp.Diff(want, rowsByGeoid(res)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{
		"B19001_003", "B19001_003_MOE", "B19001_004", "B19001_004_MOE",
		"B19001_005", "B19001_005_MOE", "B19001_006", "B19001_006_MOE", "geoid",
	}, res.Columns)
}

func TestAssemble_GeographyFilter(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 6, 2, "Total"))

	files := memFiles{
		"e2": dataLine("0000001", 8, map[int]string{6: "100"}) + dataLine("0000002", 8, map[int]string{6: "7"}),
		"m2": dataLine("0000001", 8, map[int]string{6: "5"}) + dataLine("0000002", 8, map[int]string{6: "1"}),
	}

	tracts, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	require.NoError(t, err)
	require.Len(t, tracts.Rows, 1)
	assert.Equal(t, "06001400100", tracts.Rows[0].Geoid)
	assert.Equal(t, "100", tracts.Rows[0].Get("B01003_001"))

	bgs, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoBlockGroup})
	require.NoError(t, err)
	require.Len(t, bgs.Rows, 1)
	assert.Equal(t, "060014001001", bgs.Rows[0].Geoid)
	assert.Equal(t, "1", bgs.Rows[0].Get("B01003_001_MOE"))
}

func TestAssemble_ColumnUnion(t *testing.T) {
	// Geoid A only appears in sequence 1, geoid B only in sequence 2.
	idx := acs.NewIndex()
	idx.Add(variable("X00001", 1, 6, 1, "X"))
	idx.Add(variable("Y00001", 1, 6, 2, "Y"))

	files := memFiles{
		"e1": dataLine("0000001", 7, map[int]string{6: "x"}),
		"m1": dataLine("0000001", 7, map[int]string{6: "xm"}),
		"e2": dataLine("0000003", 7, map[int]string{6: "y"}),
		"m2": dataLine("0000003", 7, map[int]string{6: "ym"}),
	}

	res, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	require.NoError(t, err)

	assert.Equal(t, []string{"X00001_001", "X00001_001_MOE", "Y00001_001", "Y00001_001_MOE", "geoid"}, res.Columns)
	require.Len(t, res.Rows, 2)

	a, b := res.Rows[0], res.Rows[1]
	assert.Equal(t, "06001400100", a.Geoid)
	assert.Equal(t, "x", a.Get("X00001_001"))
	assert.Empty(t, a.Get("Y00001_001"))
	assert.Equal(t, "06001400200", b.Geoid)
	assert.Equal(t, "y", b.Get("Y00001_001"))
	assert.Empty(t, b.Get("X00001_001"))
}

func TestAssemble_LongTitles(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B19001", 2, 6, 1, "Total: Less than $10,000"))

	files := memFiles{
		"e1": dataLine("0000001", 7, map[int]string{6: "12"}),
		"m1": dataLine("0000001", 7, map[int]string{6: "3"}),
	}

	res, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract, LongTitles: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Margin of Error on Total: Less than $10,000",
		"Total: Less than $10,000",
		"geoid",
	}, res.Columns)
	assert.Equal(t, "12", res.Rows[0].Get("Total: Less than $10,000"))
}

func TestAssemble_RowsInEncounterOrder(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 6, 1, "Total"))

	files := memFiles{
		"e1": dataLine("0000003", 7, nil) + dataLine("0000001", 7, nil),
		"m1": dataLine("0000001", 7, nil) + dataLine("0000003", 7, nil),
	}

	res, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "06001400200", res.Rows[0].Geoid)
	assert.Equal(t, "06001400100", res.Rows[1].Geoid)
}

func TestAssemble_Errors(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 9, 1, "Total"))

	tests := []struct {
		name  string
		files memFiles
		want  error
	}{
		{
			name:  "unknown logical record",
			files: memFiles{"e1": dataLine("9999999", 10, nil)},
			want:  acs.ErrUnknownRecord,
		},
		{
			name:  "offset beyond record",
			files: memFiles{"e1": dataLine("0000001", 8, nil)},
			want:  acs.ErrFieldOutOfRange,
		},
		{
			name:  "record column missing",
			files: memFiles{"e1": "ACSSF,2016e5\n"},
			want:  acs.ErrFieldOutOfRange,
		},
		{
			name:  "malformed csv",
			files: memFiles{"e1": "ACSSF,\"unterminated\n"},
			want:  acs.ErrMalformedData,
		},
		{
			name:  "missing margin of error file",
			files: memFiles{"e1": dataLine("0000001", 10, nil)},
			want:  acs.ErrMissingFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(context.Background(), idx, testGeo, tt.files, Options{Geography: acs.GeoTract})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_Options(t *testing.T) {
	_, err := New(acs.NewIndex(), testGeo, memFiles{}, Options{})
	assert.ErrorIs(t, err, acs.ErrConfig)

	_, err = New(acs.NewIndex(), testGeo, memFiles{}, Options{Geography: acs.GeoTract, RecordColumn: -1})
	assert.ErrorIs(t, err, acs.ErrConfig)

	a, err := New(acs.NewIndex(), testGeo, memFiles{}, Options{Geography: acs.GeoTract})
	require.NoError(t, err)
	assert.Equal(t, DefaultRecordColumn, a.opts.RecordColumn)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{acs.GeoidColumn}, res.Columns)
	assert.Empty(t, res.Rows)
}

func TestAssemble_CustomRecordColumn(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 2, 1, "Total"))

	files := memFiles{"e1": "ACSSF,0000001,42\n", "m1": "ACSSF,0000001,4\n"}
	res, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract, RecordColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Rows[0].Get("B01003_001"))

	_, err = Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	assert.ErrorIs(t, err, acs.ErrFieldOutOfRange)
}

func TestAssemble_Cancelled(t *testing.T) {
	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 6, 1, "Total"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Assemble(ctx, idx, testGeo, memFiles{}, Options{Geography: acs.GeoTract})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssemble_ReleaseDirectory(t *testing.T) {
	dir := t.TempDir()
	naming := source.DefaultNaming
	write := func(kind source.Kind, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, naming.DataFile(kind, 1)), []byte(body), 0o644))
	}
	write(source.Estimate, dataLine("0000001", 7, map[int]string{6: "5"}))
	write(source.MarginOfError, dataLine("0000001", 7, map[int]string{6: "1"}))

	idx := acs.NewIndex()
	idx.Add(variable("B01003", 1, 6, 1, "Total"))

	res, err := Assemble(context.Background(), idx, testGeo, source.NewFiles(dir, naming), Options{Geography: acs.GeoTract})
	require.NoError(t, err)
	assert.Equal(t, "5", res.Rows[0].Get("B01003_001"))
	assert.Equal(t, "1", res.Rows[0].Get("B01003_001_MOE"))
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logging.Setup(&buf, "info", "text")
	return &buf
}

func TestAssemble_LogsFileProgress(t *testing.T) {
	logs := captureLogs(t)

	idx := acs.NewIndex()
	idx.Add(variable("B19001", 3, 52, 1, ""))
	files := memFiles{
		"e1": dataLine("0000001", 60, map[int]string{52: "10"}),
		"m1": dataLine("0000001", 60, map[int]string{52: "1"}),
	}

	_, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "sequence=1 kind=estimate")
	assert.Contains(t, out, `kind="margin of error"`)
	assert.Contains(t, out, "progress=100")
}

func TestAssemble_LogsRejectedLine(t *testing.T) {
	logs := captureLogs(t)

	idx := acs.NewIndex()
	idx.Add(variable("B19001", 3, 52, 1, ""))
	good := dataLine("0000001", 60, map[int]string{52: "10"})
	files := memFiles{
		"e1": good + "ACSSF,2016e5\n" + good,
		"m1": good,
	}

	_, err := Assemble(context.Background(), idx, testGeo, files, Options{Geography: acs.GeoTract})
	require.ErrorIs(t, err, acs.ErrFieldOutOfRange)

	out := logs.String()
	assert.Contains(t, out, "sequence file rejected")
	assert.Contains(t, out, "line=2")
	assert.NotContains(t, out, "progress=0 ")
}
