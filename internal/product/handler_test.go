package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/products", h.List)
	r.Post("/api/products", h.Create)
	r.Get("/api/products/{id}", h.Get)
	r.Put("/api/products/{id}", h.Update)
	r.Delete("/api/products/{id}", h.Delete)
	return r
}

func TestHandler_List(t *testing.T) {
	mockRepo := new(MockRepository)
	router := newTestRouter(NewHandler(NewService(mockRepo)))

	mockRepo.On("List", mock.Anything).Return([]Product{
		{ID: 1, Name: "Headphones", Price: decimal.RequireFromString("199.99"), Stock: 50},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "199.99", got[0]["price"])
}

func TestHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("GetByID", mock.Anything, uint(3)).Return(&Product{ID: 3, Name: "Laptop Stand"}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/3", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Laptop Stand")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("GetByID", mock.Anything, uint(3)).Return(nil, ErrProductNotFound)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/3", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		router := newTestRouter(NewHandler(NewService(new(MockRepository))))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Create(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		body := `{"name":"USB-C Hub","price":"79.99","stock":75}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("MissingPrice", func(t *testing.T) {
		router := newTestRouter(NewHandler(NewService(new(MockRepository))))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"x"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ErrPriceRequired.Error())
	})

	t.Run("StorageError", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("boom"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"x","price":1}`)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})
}

func TestHandler_UpdateDelete(t *testing.T) {
	t.Run("UpdateNotFound", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(ErrProductNotFound)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/products/8", strings.NewReader(`{"name":"x","price":"2.50"}`)))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeleteInUse", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("Delete", mock.Anything, uint(8)).Return(ErrProductInUse)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/products/8", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("DeleteOK", func(t *testing.T) {
		mockRepo := new(MockRepository)
		router := newTestRouter(NewHandler(NewService(mockRepo)))
		mockRepo.On("Delete", mock.Anything, uint(8)).Return(nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/products/8", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
