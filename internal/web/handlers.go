package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fooddb/internal/core"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large or invalid form")
)

// deriveForm holds the non-file fields of a derive request.
type deriveForm struct {
	DestLocale   string `validate:"required,max=16,printascii,excludesall=?#%"`
	SourceLocale string `validate:"required,max=16,printascii,excludesall=?#%,nefield=DestLocale"`
	Format       string `validate:"omitempty,max=16,alphanum"`
}

// handleDerive applies an uploaded spreadsheet to the destination locale.
func (s *Server) handleDerive(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, true)
}

// handlePreview validates an uploaded spreadsheet and plans the codes
// without writing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, false)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, commit bool) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", errFileTooLarge, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := deriveForm{
		DestLocale:   chi.URLParam(r, "destLocale"),
		SourceLocale: strings.TrimSpace(r.FormValue("sourceLocale")),
		Format:       strings.TrimSpace(r.FormValue("format")),
	}
	if err := s.validate.Struct(form); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := core.DeriveRequest{
		Format:       form.Format,
		SourceLocale: form.SourceLocale,
		DestLocale:   form.DestLocale,
		FileName:     header.Filename,
		Input:        file,
	}

	ctx := WithRequestMetadata(r.Context(), r)
	var result *core.DeriveResult
	if commit {
		result, err = s.deriver.Derive(ctx, req)
	} else {
		result, err = s.deriver.Preview(ctx, req)
	}
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	status := http.StatusOK
	if commit {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

// respondValidation reports every invalid form field.
func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	var problems []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			problems = append(problems, fieldProblem(fe))
		}
	} else {
		problems = []string{err.Error()}
	}

	resp := ErrorResponse{
		Error:   "Invalid request",
		Message: "Invalid request",
		Action:  "Correct the listed fields and submit again",
		Code:    "REQ003",
		Errors:  problems,
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func fieldProblem(fe validator.FieldError) string {
	name := map[string]string{
		"DestLocale":   "destination locale",
		"SourceLocale": "sourceLocale",
		"Format":       "format",
	}[fe.Field()]

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "nefield":
		return "sourceLocale must differ from the destination locale"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// handleListFormats lists the spreadsheet formats a derivation accepts.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats": s.deriver.ListFormats(),
		"default": s.cfg.Derive.DefaultFormat,
	})
}

// handleHealth is the unauthenticated liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports run slots and uptime.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":   s.deriver.LimiterStatus(),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
