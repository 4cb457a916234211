package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"barkeep/internal/repository"
	"barkeep/internal/service"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	store := repository.NewMemoryStore()
	ordersRepo := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	drinksSvc := service.NewDrinkService(store)
	ordersSvc := service.NewOrderService(ordersRepo, tx)
	return NewServer(drinksSvc, ordersSvc, t.TempDir())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func createDrink(t *testing.T, s *Server) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/drinks", map[string]any{
		"name": "Negroni", "description": "bitter classic", "recipe": "# Stir with ice",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create drink %v: %s", w.Code, w.Body.String())
	}
}

func TestDrinkFlow(t *testing.T) {
	s := setupServer(t)
	// create
	createDrink(t, s)
	// get
	w := doJSON(t, s, http.MethodGet, "/api/drinks/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get code %v", w.Code)
	}
	var d map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d["name"] != "Negroni" || d["inStock"] != true {
		t.Fatalf("unexpected drink: %v", d)
	}
	// update
	w = doJSON(t, s, http.MethodPut, "/api/drinks/1", map[string]any{
		"name": "Negroni Sbagliato", "description": "with prosecco", "recipe": "stir", "inStock": false,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update code %v", w.Code)
	}
	// list
	w = doJSON(t, s, http.MethodGet, "/api/drinks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list code %v", w.Code)
	}
	// delete
	w = doJSON(t, s, http.MethodDelete, "/api/drinks/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete code %v", w.Code)
	}
	// deleted drink is gone
	w = doJSON(t, s, http.MethodGet, "/api/drinks/1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", w.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	s := setupServer(t)
	createDrink(t, s)

	// Alice orders 2x drink 1
	w := doJSON(t, s, http.MethodPost, "/api/orders", map[string]any{
		"customerName": "Alice",
		"items":        []map[string]any{{"drinkId": 1, "quantity": 2}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order %v: %s", w.Code, w.Body.String())
	}

	// duplicate pending for Alice
	w = doJSON(t, s, http.MethodPost, "/api/orders", map[string]any{
		"customerName": "Alice",
		"items":        []map[string]any{{"drinkId": 1, "quantity": 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate pending, got %v", w.Code)
	}

	// pending list includes Alice with enriched item
	w = doJSON(t, s, http.MethodGet, "/api/orders/pending", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pending %v", w.Code)
	}
	var pending []struct {
		CustomerName string `json:"customerName"`
		Items        []struct {
			Quantity int64  `json:"quantity"`
			Name     string `json:"name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &pending); err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].CustomerName != "Alice" {
		t.Fatalf("unexpected pending: %s", w.Body.String())
	}
	if len(pending[0].Items) != 1 || pending[0].Items[0].Quantity != 2 || pending[0].Items[0].Name != "Negroni" {
		t.Fatalf("unexpected items: %s", w.Body.String())
	}

	// order by customer
	w = doJSON(t, s, http.MethodGet, "/api/orders/customer/Alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by customer %v", w.Code)
	}

	// complete
	w = doJSON(t, s, http.MethodPut, "/api/orders/1/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete %v", w.Code)
	}

	// клиент очищает локальный флаг по 404
	w = doJSON(t, s, http.MethodGet, "/api/orders/customer/Alice", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after complete, got %v", w.Code)
	}

	// list all, newest first
	w = doJSON(t, s, http.MethodGet, "/api/orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list %v", w.Code)
	}
}

func TestRecipeEndpoint(t *testing.T) {
	s := setupServer(t)
	createDrink(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/drinks/1/recipe", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recipe %v", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<h1") {
		t.Fatalf("recipe not rendered: %s", w.Body.String())
	}
}

func TestImageUpload(t *testing.T) {
	s := setupServer(t)
	createDrink(t, s)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "negroni.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("not really a png")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/drinks/1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload %v: %s", w.Code, w.Body.String())
	}
	var d struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.ImageURL != "/uploads/drink-1.png" {
		t.Fatalf("unexpected imageUrl %q", d.ImageURL)
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	s := setupServer(t)

	// invalid drink body
	w := doJSON(t, s, http.MethodPost, "/api/drinks", map[string]any{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}

	// invalid id
	w = doJSON(t, s, http.MethodGet, "/api/drinks/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}

	// order without items
	w = doJSON(t, s, http.MethodPost, "/api/orders", map[string]any{"customerName": "John"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", w.Code)
	}
}

func TestHTTP_NotFound(t *testing.T) {
	s := setupServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/drinks/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPut, "/api/drinks/999", map[string]any{
		"name": "X", "description": "x", "recipe": "x",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodDelete, "/api/drinks/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodPut, "/api/orders/999/complete", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/orders/customer/Nobody", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
}
