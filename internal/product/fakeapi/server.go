package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/abgdnv/gocommerce-inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// productRequest is the body of create and update calls.
type productRequest struct {
	Name     string  `json:"name"     validate:"required,max=100"`
	SKU      string  `json:"sku"      validate:"required,max=64"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price"    validate:"gt=0"`
}

type failure struct {
	status  int
	message string
}

// API serves the products resource from memory.
type API struct {
	store    *inMemory
	validate *validator.Validate
	logger   *slog.Logger

	mu       sync.Mutex
	failures map[string][]failure
	calls    map[string]int
}

// New creates an empty API.
func New(logger *slog.Logger) *API {
	return &API{
		store:    newInMemory(),
		validate: validator.New(),
		logger:   logger.With("component", "fakeapi"),
		failures: make(map[string][]failure),
		calls:    make(map[string]int),
	}
}

// Start serves the API on a local httptest server.
// The caller is responsible for closing it.
func (a *API) Start() *httptest.Server {
	r := chi.NewRouter()
	a.RegisterRoutes(r)
	return httptest.NewServer(r)
}

// RegisterRoutes registers the products resource under /products.
func (a *API) RegisterRoutes(r *chi.Mux) {
	r.Route("/products", func(r chi.Router) {
		r.Use(a.injectFailures)
		r.Get("/", a.FindAll)
		r.Post("/", a.Create)
		r.Put("/{id}", a.Update)
		r.Delete("/{id}", a.Delete)
	})
}

// Seed stores products directly and returns them with their identifiers.
func (a *API) Seed(products ...Product) []Product {
	seeded := make([]Product, 0, len(products))
	for _, p := range products {
		created, err := a.store.create(p)
		if err != nil {
			panic(fmt.Sprintf("fakeapi: seed %q: %v", p.SKU, err))
		}
		seeded = append(seeded, created)
	}
	return seeded
}

// Products returns the current content of the backend.
func (a *API) Products() []Product {
	return a.store.findAll()
}

// FailNext makes the next request with the given method answer status.
// An empty message produces a response without body.
func (a *API) FailNext(method string, status int, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[method] = append(a.failures[method], failure{status: status, message: message})
}

// Calls returns how many requests with the given method reached the API.
func (a *API) Calls(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[method]
}

func (a *API) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.calls[r.Method]++
		queue := a.failures[r.Method]
		var f *failure
		if len(queue) > 0 {
			f = &queue[0]
			a.failures[r.Method] = queue[1:]
		}
		a.mu.Unlock()

		if f == nil {
			next.ServeHTTP(w, r)
			return
		}
		if f.message == "" {
			w.WriteHeader(f.status)
			return
		}
		web.RespondError(w, a.logger, f.status, f.message)
	})
}

// FindAll lists all products.
func (a *API) FindAll(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, a.logger, http.StatusOK, a.store.findAll())
}

// Create adds a product.
func (a *API) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	created, err := a.store.create(Product{Name: req.Name, SKU: req.SKU, Quantity: req.Quantity, Price: req.Price})
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	web.RespondJSON(w, a.logger, http.StatusCreated, created)
}

// Update replaces a product.
func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}
	updated, err := a.store.update(Product{
		ID: chi.URLParam(r, "id"), Name: req.Name, SKU: req.SKU, Quantity: req.Quantity, Price: req.Price,
	})
	if err != nil {
		a.respondStoreError(w, err)
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, updated)
}

// Delete removes a product.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	if err := a.store.delete(chi.URLParam(r, "id")); err != nil {
		a.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if err := a.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fieldErr := validationErrors[0]
			web.RespondError(w, a.logger, http.StatusBadRequest,
				fmt.Sprintf("%s failed on rule: %s", fieldErr.Field(), fieldErr.Tag()))
			return req, false
		}
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	return req, true
}

func (a *API) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotFound):
		web.RespondError(w, a.logger, http.StatusNotFound, "Product not found")
	case errors.Is(err, errDuplicateSKU):
		web.RespondError(w, a.logger, http.StatusConflict, "SKU already exists")
	default:
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Internal server error")
	}
}
