package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"career-compass/internal/models"
	"career-compass/internal/normalize"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type listParams struct {
	Search   string `validate:"max=200"`
	Status   string `validate:"max=64"`
	Sort     string `validate:"omitempty,oneof=created_at due_date company role status"`
	Dir      string `validate:"omitempty,oneof=asc desc"`
	Page     int    `validate:"gte=0"`
	PageSize int    `validate:"omitempty,oneof=10 20 50"`
}

type statusCounts struct {
	Statuses map[string]int `json:"statuses"`
	Total    int            `json:"total"`
}

type listResponse struct {
	OK       bool                 `json:"ok"`
	Data     []models.Application `json:"data"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Pages    int                  `json:"pages"`
	Counts   statusCounts         `json:"counts"`
}

func newListResponse(p *models.Page) listResponse {
	items := p.Items
	if items == nil {
		items = []models.Application{}
	}
	return listResponse{
		OK:       true,
		Data:     items,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Pages:    p.Pages(),
		Counts:   statusCounts{Statuses: p.StatusCounts(), Total: p.Total},
	}
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r.URL.Query())
	if err != nil {
		badRequest(w, "invalid_query", err.Error())
		return
	}

	page, err := s.apps.List(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to list applications", zap.Error(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(page))
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		badRequest(w, "invalid_json", err.Error())
		return
	}

	app, err := s.apps.Create(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.apps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		badRequest(w, "invalid_json", err.Error())
		return
	}
	// the path names the row being edited
	fields[models.FieldID] = chi.URLParam(r, "id")

	app, err := s.apps.Update(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	view, err := s.parseQuery(r.URL.Query())
	if err != nil {
		badRequest(w, "invalid_query", err.Error())
		return
	}

	page, err := s.apps.Delete(r.Context(), chi.URLParam(r, "id"), view)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newListResponse(page))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, s.notes.Active())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid_id", "notification id must be a number")
		return
	}

	if !s.notes.Dismiss(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Notification not found", Code: "not_found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseQuery reads list parameters, rejecting malformed ones.
func (s *Server) parseQuery(values url.Values) (models.Query, error) {
	p := listParams{
		Search: values.Get("q"),
		Status: values.Get("status"),
		Sort:   values.Get("sort"),
		Dir:    strings.ToLower(values.Get("dir")),
	}

	var err error
	if p.Page, err = intParam(values, "page"); err != nil {
		return models.Query{}, err
	}
	if p.PageSize, err = intParam(values, "page_size"); err != nil {
		return models.Query{}, err
	}

	if err := s.validate.Struct(p); err != nil {
		return models.Query{}, validationMessage(err)
	}

	return models.Query{
		Search:   p.Search,
		Status:   p.Status,
		Sort:     models.SortKey(p.Sort),
		Dir:      models.Direction(p.Dir),
		Page:     p.Page,
		PageSize: p.PageSize,
	}.Normalized(), nil
}

func intParam(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return n, nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Errorf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
}

// decodeFields reads a JSON object keeping numbers as json.Number.
func decodeFields(r *http.Request) (normalize.Fields, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields normalize.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if fields == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return fields, nil
}
