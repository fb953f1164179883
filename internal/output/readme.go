package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/logging"
)

// ProducedBy closes every README.
const ProducedBy = "Produced with acsextract"

// RenderReadme writes the variable documentation for an output named
// outputName. Variables are grouped by table; within a table they keep the
// order given.
func RenderReadme(w io.Writer, outputName string, vars []acs.Variable, geo acs.GeoType) error {
	sorted := make([]acs.Variable, len(vars))
	copy(sorted, vars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Table < sorted[j].Table
	})

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "README for %s\n", filepath.Base(outputName))

	current := ""
	for i, v := range sorted {
		if i == 0 || v.Table != current {
			current = v.Table
			header := fmt.Sprintf("%s: %s", v.Table, v.TableName)
			fmt.Fprintf(bw, "\n%s\n%s\n", header, strings.Repeat("=", utf8.RuneCountInString(header)))
		}
		fmt.Fprintf(bw, "%s: %s\n", v.Key(), v.Name)
	}

	fmt.Fprintf(bw, "\n%s: Census geographic ID for %s\n", acs.GeoidColumn, geo)
	fmt.Fprintf(bw, "\n%s\n", ProducedBy)
	return bw.Flush()
}

// WriteReadme renders the README to path.
func WriteReadme(ctx context.Context, path, outputName string, vars []acs.Variable, geo acs.GeoType) error {
	err := writeAtomic(path, func(w io.Writer) error {
		return RenderReadme(w, outputName, vars, geo)
	})
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("wrote readme", "path", path, "variables", len(vars))
	return nil
}
