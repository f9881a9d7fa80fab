// Package scaffold stamps out the fixed five-file skeleton a new feature
// starts from: model, repository, service, handler, and route
// registration. It is deliberately dumb string templating; generated
// files are meant to be edited immediately.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// featureName must be usable as both a Go package name and a directory
var featureName = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Generator writes feature skeletons under Root/internal/<name>/
type Generator struct {
	Root   string
	Module string
}

// New creates a generator rooted at the repository directory
func New(root, module string) *Generator {
	return &Generator{Root: root, Module: module}
}

type templateData struct {
	Package string
	Type    string
	Module  string
}

// Feature generates the five skeleton files for a new feature. It
// refuses to overwrite an existing feature directory.
func (g *Generator) Feature(name string) ([]string, error) {
	if !featureName.MatchString(name) {
		return nil, fmt.Errorf("invalid feature name %q: must be a lowercase identifier", name)
	}

	dir := filepath.Join(g.Root, "internal", name)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("feature %q already exists at %s", name, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feature directory: %w", err)
	}

	data := templateData{
		Package: name,
		Type:    strings.ToUpper(name[:1]) + name[1:],
		Module:  g.Module,
	}

	written := make([]string, 0, len(fileTemplates))
	for filename, tmpl := range fileTemplates {
		path := filepath.Join(dir, filename)
		if err := renderFile(path, tmpl, data); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func renderFile(path, tmpl string, data templateData) error {
	t, err := template.New(filepath.Base(path)).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var fileTemplates = map[string]string{
	"model.go": `package {{.Package}}

import (
	"time"

	"github.com/google/uuid"
)

// {{.Type}} is the {{.Package}} record
type {{.Type}} struct {
	ID        uuid.UUID ` + "`json:\"id\"`" + `
	Name      string    ` + "`json:\"name\"`" + `
	CreatedAt time.Time ` + "`json:\"createdAt\"`" + `
	UpdatedAt time.Time ` + "`json:\"updatedAt\"`" + `
}
`,
	"repository.go": `package {{.Package}}

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"{{.Module}}/internal/database"
)

// Repository persists {{.Package}} records
type Repository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*{{.Type}}
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{records: make(map[uuid.UUID]*{{.Type}})}
}

// GetByID retrieves a record by ID
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*{{.Type}}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

// Save stores a record
func (r *Repository) Save(_ context.Context, record *{{.Type}}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[record.ID] = &clone
	return nil
}
`,
	"service.go": `package {{.Package}}

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the {{.Package}} business rules
type Service struct {
	repo   *Repository
	logger *zap.Logger
}

// NewService creates a {{.Package}} service
func NewService(repo *Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create assigns identity and timestamps and persists the record
func (s *Service) Create(ctx context.Context, name string) (*{{.Type}}, error) {
	now := time.Now().UTC()
	record := &{{.Type}}{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get retrieves a record by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*{{.Type}}, error) {
	return s.repo.GetByID(ctx, id)
}
`,
	"handler.go": `package {{.Package}}

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler handles {{.Package}} requests
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a {{.Package}} handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createRequest struct {
	Name string ` + "`json:\"name\"`" + `
}

// Create handles POST /
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(record)
}

// Get handles GET /{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
}
`,
	"routes.go": `package {{.Package}}

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers {{.Package}} routes on the given router. The
// router should already carry the /{{.Package}} prefix.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.Create).Methods("POST")
	r.HandleFunc("/{id}", h.Get).Methods("GET")
}
`,
}
