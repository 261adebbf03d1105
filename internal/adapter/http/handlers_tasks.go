package adapthttp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tasktracker/internal/domain"
)

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	set   bool
	null  bool
	value string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		o.null = true
		return nil
	}
	return json.Unmarshal(b, &o.value)
}

func (o optionalString) field(name string) (*string, error) {
	switch {
	case !o.set:
		return nil, nil
	case o.null:
		return nil, domain.Invalid(name, "this field may not be null")
	default:
		v := o.value
		return &v, nil
	}
}

// taskPayload is the writable part of a task request body. Fields outside
// it, including any owner field, are dropped during decoding.
type taskPayload struct {
	Title       optionalString `json:"title"`
	Description optionalString `json:"description"`
}

func (p taskPayload) update() (domain.TaskUpdate, error) {
	title, err := p.Title.field("title")
	if err != nil {
		return domain.TaskUpdate{}, err
	}
	description, err := p.Description.field("description")
	if err != nil {
		return domain.TaskUpdate{}, err
	}
	return domain.TaskUpdate{Title: title, Description: description}, nil
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	items, err := s.tasks.List(r.Context(), userFromContext(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var body taskPayload
	if err := parseJSONLenient(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := body.update()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	// A new task needs every writable field, exactly like a full update.
	var fields domain.Task
	if err := u.Apply(&fields, domain.UpdateFull); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), userFromContext(r), fields.Title, fields.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}
	task, err := s.tasks.Get(r.Context(), userFromContext(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskReplace(w http.ResponseWriter, r *http.Request) {
	s.handleTaskUpdate(w, r, domain.UpdateFull)
}

func (s *Server) handleTaskPatch(w http.ResponseWriter, r *http.Request) {
	s.handleTaskUpdate(w, r, domain.UpdatePartial)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request, mode domain.UpdateMode) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}
	var body taskPayload
	// An empty PATCH body is an update that changes nothing.
	if err := parseJSONLenient(w, r, &body); err != nil && !(mode == domain.UpdatePartial && errors.Is(err, io.EOF)) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	u, err := body.update()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	task, err := s.tasks.Update(r.Context(), userFromContext(r), id, u, mode)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrNotFound)
		return
	}
	if err := s.tasks.Delete(r.Context(), userFromContext(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
