package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/claimsimport/internal/core"
	"github.com/JonMunkholm/claimsimport/internal/ingest"
	"github.com/JonMunkholm/claimsimport/internal/schema"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// maxProcessBody bounds the JSON body of a process request.
const maxProcessBody = 64 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"batches": s.imports.LimiterStatus(),
	})
}

// schemaField adds the value kind, which Field does not serialize.
type schemaField struct {
	schema.Field
	Kind string `json:"kind"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	fields := schema.All()
	out := make([]schemaField, len(fields))
	for i, f := range fields {
		out[i] = schemaField{Field: f, Kind: f.Kind.String()}
	}
	writeJSON(w, map[string]any{
		"entities": schema.Entities,
		"fields":   out,
		"unmapped": schema.Unmapped,
	})
}

// handleUpload accepts a multipart "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.upload.MaxFileSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			fail(w, r, fmt.Errorf("%w: exceeds %d bytes", ingest.ErrFileTooLarge, s.upload.MaxFileSize))
		case errors.Is(err, http.ErrMissingFile):
			fail(w, r, core.ErrNoFile)
		default:
			fail(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		}
		return
	}
	defer file.Close()

	res, err := s.imports.Upload(r.Context(), header.Filename, file)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// ProcessRequest is the body of a process call. Data may be omitted to
// load the rows of the stored document.
type ProcessRequest struct {
	Mappings []core.MappingEntry `json:"mappings"`
	Data     []core.RawRow       `json:"data"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := s.importID(w, r)
	if !ok {
		return
	}

	var req ProcessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProcessBody))
	if err := dec.Decode(&req); err != nil {
		fail(w, r, fmt.Errorf("%w: decode body: %v", core.ErrInvalidRequest, err))
		return
	}

	sum, err := s.imports.Process(r.Context(), id, req.Mappings, req.Data)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, sum)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	imports, err := s.imports.ListImports(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	if imports == nil {
		imports = []core.Import{}
	}
	writeJSON(w, imports)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.importID(w, r)
	if !ok {
		return
	}
	imp, err := s.imports.GetImport(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, imp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.importID(w, r)
	if !ok {
		return
	}
	rep, err := s.reports.FileReport(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, rep)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.reports.Analytics(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, a)
}

// importID parses the {importID} path parameter, responding 400 when it
// is not a uuid.
func (s *Server) importID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "importID")
	id, err := uuid.Parse(raw)
	if err != nil {
		fail(w, r, fmt.Errorf("%w: import id %q", core.ErrInvalidRequest, raw))
		return uuid.Nil, false
	}
	return id, true
}
