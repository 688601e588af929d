// Package web serves the inventory UI: the product list page, the add/edit dialog and the
// delete confirmation, rendered from the process-wide product store.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocommerce-inventory/internal/product/client"
	producterrors "github.com/abgdnv/gocommerce-inventory/internal/product/errors"
	"github.com/abgdnv/gocommerce-inventory/internal/product/form"
	"github.com/abgdnv/gocommerce-inventory/internal/product/store"
	"github.com/abgdnv/gocommerce-inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:embed templates/*
var templateFS embed.FS

// maxFormBytes bounds the size of a submitted dialog.
const maxFormBytes = 64 << 10

// ProductStore is the view of the store used by the pages.
type ProductStore interface {
	State() store.State
	Refresh(ctx context.Context) error
	Remove(ctx context.Context, id string) error
	Find(id string) (*client.Product, error)
	Subscribe(fn func(store.State)) (unsubscribe func())
}

// Submitter saves a dialog draft.
type Submitter interface {
	Submit(ctx context.Context, existing *client.Product, d form.Draft) (*client.Product, error)
}

type Handler struct {
	store     ProductStore
	form      Submitter
	templates *template.Template
	logger    *slog.Logger
}

// NewHandler parses the embedded templates and creates the UI handler.
func NewHandler(productStore ProductStore, submitter Submitter, logger *slog.Logger) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{"money": money}).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:     productStore,
		form:      submitter,
		templates: tmpl,
		logger:    logger.With("component", "web"),
	}, nil
}

// RegisterRoutes registers the UI routes.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.Index)
	r.Post("/refresh", h.Refresh)

	r.Route("/products", func(r chi.Router) {
		r.Get("/new", h.NewDialog)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/edit", h.EditDialog)
			r.Post("/", h.Update)
			r.Get("/delete", h.ConfirmDelete)
			r.Post("/delete", h.Delete)
		})
	})

	r.Get("/live", h.Live)
	r.Get("/healthz", h.HealthCheck)
}

// pageData is the model of the single page template.
type pageData struct {
	State   store.State
	Dialog  *dialogData
	Confirm *client.Product
}

// dialogData describes the open add/edit dialog.
type dialogData struct {
	Title       string
	SubmitLabel string
	Action      string
	Draft       form.Draft
	Error       string
}

func newDialog(existing *client.Product, d form.Draft) *dialogData {
	if existing == nil {
		return &dialogData{Title: "Add New Product", SubmitLabel: "Create Product", Action: "/products", Draft: d}
	}
	return &dialogData{Title: "Edit Product", SubmitLabel: "Update Product", Action: "/products/" + existing.ID, Draft: d}
}

// Index renders the product list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageData{State: h.store.State()})
}

// Refresh reloads the product list and goes back to it. A failure shows up as the store error.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Refresh(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "Refresh requested by user failed", "error", err)
	}
	web.Redirect(w, r, "/")
}

// NewDialog opens the empty add dialog.
func (h *Handler) NewDialog(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageData{
		State:  h.store.State(),
		Dialog: newDialog(nil, form.NewDraft(nil)),
	})
}

// EditDialog opens the edit dialog seeded with the selected product.
func (h *Handler) EditDialog(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.findProduct(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, pageData{
		State:  h.store.State(),
		Dialog: newDialog(existing, form.NewDraft(existing)),
	})
}

// Create submits the add dialog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, nil)
}

// Update submits the edit dialog.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.findProduct(w, r)
	if !ok {
		return
	}
	h.submit(w, r, existing)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, existing *client.Product) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "Error parsing dialog form", "error", err)
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	d := form.Draft{
		Name:     r.PostForm.Get("name"),
		SKU:      r.PostForm.Get("sku"),
		Quantity: r.PostForm.Get("quantity"),
		Price:    r.PostForm.Get("price"),
	}

	if _, err := h.form.Submit(r.Context(), existing, d); err != nil {
		status := http.StatusBadGateway
		var ve *producterrors.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusUnprocessableEntity
		}
		dialog := newDialog(existing, d)
		dialog.Error = form.Message(err)
		h.render(w, r, status, pageData{State: h.store.State(), Dialog: dialog})
		return
	}
	web.Redirect(w, r, "/")
}

// ConfirmDelete asks for confirmation before deleting a product.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.findProduct(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, pageData{State: h.store.State(), Confirm: existing})
}

// Delete removes a confirmed product. A failure is exposed through the store error.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Remove(r.Context(), id); err != nil {
		h.logger.WarnContext(r.Context(), "Delete requested by user failed", "ID", id, "error", err)
	}
	web.Redirect(w, r, "/")
}

// HealthCheck reports that the UI process is serving.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// findProduct resolves the {id} parameter against the current list and answers 404 when it is absent.
func (h *Handler) findProduct(w http.ResponseWriter, r *http.Request) (*client.Product, bool) {
	id := chi.URLParam(r, "id")
	existing, err := h.store.Find(id)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		h.render(w, r, http.StatusNotFound, pageData{State: h.store.State()})
		return nil, false
	}
	return existing, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "index.gohtml", data); err != nil {
		h.logger.ErrorContext(r.Context(), "Error rendering page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// money formats a price the way the list shows it.
func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
