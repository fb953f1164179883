package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/acsextract/internal/acs"
	"github.com/JonMunkholm/acsextract/internal/lookup"
	"github.com/JonMunkholm/acsextract/internal/output"
)

// DefaultReadmeOutput names the output in /api/readme when none is given.
const DefaultReadmeOutput = "acs_extract.csv"

// VariableView is one resolved variable with its output column names.
type VariableView struct {
	acs.Variable
	Key       string `json:"key"`
	Column    string `json:"column"`
	MOEColumn string `json:"moeColumn"`
}

// VariablesResponse is the body of /api/variables.
type VariablesResponse struct {
	Variables  []VariableView `json:"variables"`
	Unmatched  []string       `json:"unmatched"`
	LongTitles bool           `json:"longTitles"`
}

// specParams collects the var parameters; each may hold several
// comma-separated specs.
func specParams(r *http.Request) []string {
	var specs []string
	for _, v := range r.URL.Query()["var"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				specs = append(specs, s)
			}
		}
	}
	return specs
}

// parseBoolParam parses a boolean query parameter, false when absent or invalid.
func parseBoolParam(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && b
}

// resolve resolves the request's specs against the server's table.
func (s *Server) resolve(r *http.Request) (*lookup.Result, error) {
	specs := specParams(r)
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: at least one var parameter is required", acs.ErrConfig)
	}
	return lookup.ResolveStrings(r.Context(), s.table, specs)
}

func views(res *lookup.Result, longTitles bool) []VariableView {
	vars := res.Index.Sorted()
	out := make([]VariableView, len(vars))
	for i, v := range vars {
		out[i] = VariableView{
			Variable:  v,
			Key:       v.Key(),
			Column:    acs.ColumnName(v, false, longTitles),
			MOEColumn: acs.ColumnName(v, true, longTitles),
		}
	}
	return out
}

func unmatchedStrings(res *lookup.Result) []string {
	out := make([]string, 0, len(res.Unmatched))
	for _, spec := range res.Unmatched {
		out = append(out, spec.String())
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolve(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	long := parseBoolParam(r, "long")
	writeJSON(w, r, VariablesResponse{
		Variables:  views(res, long),
		Unmatched:  unmatchedStrings(res),
		LongTitles: long,
	})
}

func (s *Server) handleReadme(w http.ResponseWriter, r *http.Request) {
	geoParam := r.URL.Query().Get("geo")
	if geoParam == "" {
		geoParam = string(acs.GeoTract)
	}
	geo, err := acs.ParseGeoType(geoParam)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.resolve(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	name := r.URL.Query().Get("output")
	if name == "" {
		name = DefaultReadmeOutput
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := output.RenderReadme(w, name, res.Index.Variables(), geo); err != nil {
		respondError(w, r, err)
	}
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	res, err := s.resolve(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	long := parseBoolParam(r, "long")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Dictionary(views(res, long), unmatchedStrings(res)).Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}
