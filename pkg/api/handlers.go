package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	gerrors "github.com/matzehuels/grunt/pkg/errors"
	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/layer"
	"github.com/matzehuels/grunt/pkg/model"
	"github.com/matzehuels/grunt/pkg/pipeline"
	"github.com/matzehuels/grunt/pkg/recipe"
	"github.com/matzehuels/grunt/pkg/store"
)

// ModelResponse describes a generated or stored model.
type ModelResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Seed     uint64          `json:"seed,string"`
	Borders  int             `json:"borders"`
	Rows     int             `json:"rows"`
	Cols     int             `json:"cols"`
	Warnings []model.Warning `json:"warnings,omitempty"`
	Stored   bool            `json:"stored"`
	Cached   bool            `json:"cached"`
}

// ValidateLayerRequest is the body of POST /v1/layers/validate.
type ValidateLayerRequest struct {
	Layer   layer.Layer  `json:"layer"`
	Limits  layer.Limits `json:"limits"`
	MaxStep *uint32      `json:"max_step,omitempty"`
}

// ValidateLayerResponse reports the outcome of a layer validation.
type ValidateLayerResponse struct {
	Valid      bool              `json:"valid"`
	Violations []layer.Violation `json:"violations"`
}

func (s *Server) handleAxis(w http.ResponseWriter, r *http.Request) {
	var def recipe.Axis
	if err := s.decodeJSON(w, r, &def); err != nil {
		writeError(w, err)
		return
	}
	ax, err := def.Build()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ax)
}

func (s *Server) handleValidateLayer(w http.ResponseWriter, r *http.Request) {
	var req ValidateLayerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Limits.Valid() {
		writeError(w, gerrors.New(gerrors.ErrCodeIncorrectBordersLimits, "invalid limits %s", req.Limits))
		return
	}

	var opts []layer.Option
	if req.MaxStep != nil {
		opts = append(opts, layer.WithMaxStep(*req.MaxStep))
	}
	resp := ValidateLayerResponse{Valid: true, Violations: []layer.Violation{}}
	if err := layer.Validate(req.Layer, req.Limits, opts...); err != nil {
		var verr *layer.ValidationError
		if !errors.As(err, &verr) {
			writeError(w, err)
			return
		}
		resp.Valid = false
		resp.Violations = verr.Violations
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	format, err := recipeFormat(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, gerrors.Wrap(gerrors.ErrCodeInvalidInput, err, "read request body"))
		return
	}
	rcp, err := recipe.Parse(body, format)
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := pipeline.FromRecipe(rcp)
	if err != nil {
		writeError(w, err)
		return
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = s.cfg.Parallelism
	}
	opts.Save = s.runner.Store != nil
	opts.MaxCells = s.cfg.MaxCells

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	m := result.Model
	writeJSON(w, http.StatusCreated, ModelResponse{
		ID:       m.ID.String(),
		Name:     opts.Name,
		Seed:     m.Seed,
		Borders:  m.NumberOfBorders(),
		Rows:     m.Params.Rows(),
		Cols:     m.Params.Cols(),
		Warnings: m.Warnings,
		Stored:   result.RecordID != "",
		Cached:   result.CacheInfo.ModelHit,
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		writeJSON(w, http.StatusOK, []ModelResponse{})
		return
	}
	recs, err := s.runner.Store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ModelResponse, len(recs))
	for i, rec := range recs {
		out[i] = recordResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var sections []export.Section
	if raw := query.Get("sections"); raw != "" {
		var err error
		if sections, err = export.ParseSections(raw); err != nil {
			writeError(w, err)
			return
		}
	}
	compress := false
	if raw := query.Get("compress"); raw != "" {
		var err error
		if compress, err = strconv.ParseBool(raw); err != nil {
			writeError(w, gerrors.New(gerrors.ErrCodeInvalidInput, "invalid compress value %q", raw))
			return
		}
	}

	rec, m, err := s.runner.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := s.runner.Export(r.Context(), m, pipeline.Options{
		Name:       rec.Name,
		Params:     m.Params,
		Seed:       m.Seed,
		Validation: model.ValidateOff,
		Sections:   sections,
		Compress:   compress,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	ext := ".json"
	w.Header().Set("Content-Type", "application/json")
	if compress {
		ext += ".zst"
		w.Header().Set("Content-Type", "application/zstd")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		writeError(w, store.ErrNotFound)
		return
	}
	if err := s.runner.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func recordResponse(rec *store.Record) ModelResponse {
	return ModelResponse{
		ID:       rec.ID,
		Name:     rec.Name,
		Seed:     rec.Seed,
		Borders:  rec.Borders,
		Rows:     rec.Rows,
		Cols:     rec.Cols,
		Warnings: rec.Warnings,
		Stored:   true,
	}
}

// decodeJSON decodes a bounded request body, rejecting unknown fields.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}

// recipeFormat maps a request content type to a recipe format. JSON is the
// default.
func recipeFormat(contentType string) (recipe.Format, error) {
	if contentType == "" {
		return recipe.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "invalid content type")
	}
	switch mt {
	case "application/json":
		return recipe.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return recipe.FormatYAML, nil
	case "application/toml", "text/toml":
		return recipe.FormatTOML, nil
	}
	return "", gerrors.New(gerrors.ErrCodeInvalidFormat, "unsupported content type %q", mt)
}
