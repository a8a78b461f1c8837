package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tablepos/api/internal/database"
)

// SectionStore defines the database methods needed by section handlers.
type SectionStore interface {
	ListSections(ctx context.Context) ([]database.Section, error)
	CreateSection(ctx context.Context, name string) (database.Section, error)
}

// SectionHandler handles floor section endpoints.
type SectionHandler struct {
	store SectionStore
}

func NewSectionHandler(store SectionStore) *SectionHandler {
	return &SectionHandler{store: store}
}

// RegisterRoutes registers section endpoints. Expected to be mounted at /sections
func (h *SectionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

type createSectionRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type sectionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *SectionHandler) List(w http.ResponseWriter, r *http.Request) {
	sections, err := h.store.ListSections(r.Context())
	if err != nil {
		writeInternal(w, "list sections", err)
		return
	}
	resp := make([]sectionResponse, len(sections))
	for i, s := range sections {
		resp[i] = sectionResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}
	}
	writeData(w, http.StatusOK, resp)
}

func (h *SectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.store.CreateSection(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "section name already exists")
			return
		}
		writeInternal(w, "create section", err)
		return
	}
	writeData(w, http.StatusCreated, sectionResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt})
}
