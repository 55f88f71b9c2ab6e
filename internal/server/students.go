package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Student is the demo resource protected by the rule table.
type Student struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StudentStore is an in-memory student repository.
type StudentStore struct {
	mu     sync.RWMutex
	byID   map[int]Student
	nextID int
}

// NewStudentStore returns a store seeded with students.
func NewStudentStore(seed ...Student) *StudentStore {
	s := &StudentStore{byID: make(map[int]Student), nextID: 1}
	for _, st := range seed {
		s.byID[st.ID] = st
		if st.ID >= s.nextID {
			s.nextID = st.ID + 1
		}
	}
	return s
}

// DemoStudents is the initial student list of the demo server.
func DemoStudents() []Student {
	return []Student{
		{ID: 1, Name: "James Bond"},
		{ID: 2, Name: "Maria Jones"},
		{ID: 3, Name: "Anna Smith"},
	}
}

func (s *StudentStore) List() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, 0, len(s.byID))
	for _, st := range s.byID {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b Student) int { return a.ID - b.ID })
	return out
}

func (s *StudentStore) Get(id int) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[id]
	return st, ok
}

func (s *StudentStore) Create(name string) Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Student{ID: s.nextID, Name: name}
	s.byID[st.ID] = st
	s.nextID++
	return st
}

func (s *StudentStore) Update(id int, name string) (Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return Student{}, false
	}
	st := Student{ID: id, Name: name}
	s.byID[id] = st
	return st, true
}

func (s *StudentStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

type studentHandlers struct {
	store *StudentStore
}

func (h studentHandlers) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h studentHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, found := h.store.Get(id)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h studentHandlers) create(w http.ResponseWriter, r *http.Request) {
	name, err := decodeName(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, h.store.Create(name))
}

func (h studentHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name, err := decodeName(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	st, found := h.store.Update(id, name)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h studentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.store.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "student not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid student id"})
		return 0, false
	}
	return id, true
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, error) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&body); err != nil {
		return "", errors.New("invalid body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return "", errors.New("name required")
	}
	return name, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
