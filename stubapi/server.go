// Package stubapi is an in-memory implementation of the users/products/orders service that the
// built-in fixtures talk to. Like a real database-backed service, it refuses to delete a user
// or product that an existing order still references, which makes it useful for checking that
// test data is cleaned up in a safe order.
package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/framework"
)

// Server holds the service state. Use Handler to serve it.
type Server struct {
	users     *collection
	products  *collection
	orders    *collection
	tokens    map[string]string
	deletions []string
	logger    framework.Logger
	lock      sync.Mutex
}

// New creates an empty service.
func New(logger framework.Logger) *Server {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Server{
		users:    newCollection("u"),
		products: newCollection("p"),
		orders:   newCollection("o"),
		tokens:   make(map[string]string),
		logger:   logger,
	}
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.status)
	r.Post("/api/auth/login", s.login)
	r.Get("/api/me", s.me)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", s.createUser)
		r.Get("/{id}", s.getter(s.users, "password"))
		r.Delete("/{id}", s.deleter(s.users, "user", "userId"))
	})
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", s.createProduct)
		r.Get("/{id}", s.getter(s.products, ""))
		r.Delete("/{id}", s.deleter(s.products, "product", "productIds"))
	})
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", s.createOrder)
		r.Get("/{id}", s.getter(s.orders, ""))
		r.Delete("/{id}", s.deleter(s.orders, "order", ""))
	})
	return r
}

// Deletions returns a description of every successful delete, in the order they happened,
// such as "order o1".
func (s *Server) Deletions() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.deletions...)
}

// AddAccount stores a user without going through the API, so that a service started for a test
// run can have a known login. It returns the id of the new user.
func (s *Server) AddAccount(email, password string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	user := s.users.insert(ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Test Account")).
		Set("email", ldvalue.String(email)).
		Set("password", ldvalue.String(password)).
		Set("role", ldvalue.String("admin")).
		Build())
	return user.GetByKey("id").StringValue()
}

// Counts returns the number of stored users, products and orders.
func (s *Server) Counts() (users, products, orders int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.users.items), len(s.products.items), len(s.orders.items)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Set("status", ldvalue.String("ok")).Build())
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	email, password := body.GetByKey("email").StringValue(), body.GetByKey("password").StringValue()

	s.lock.Lock()
	defer s.lock.Unlock()
	user, found := s.users.find(func(u ldvalue.Value) bool {
		return u.GetByKey("email").StringValue() == email && u.GetByKey("password").StringValue() == password
	})
	if !found {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = user.GetByKey("id").StringValue()
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Set("token", ldvalue.String(token)).Build())
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.lock.Lock()
	defer s.lock.Unlock()
	userID, ok := s.tokens[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	user, ok := s.users.get(userID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	writeJSON(w, http.StatusOK, withoutKey(user, "password"))
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	email := body.GetByKey("email").StringValue()
	if email == "" {
		writeError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, dup := s.users.find(func(u ldvalue.Value) bool { return u.GetByKey("email").StringValue() == email }); dup {
		writeError(w, http.StatusConflict, fmt.Sprintf("email %s is already registered", email))
		return
	}
	user := s.users.insert(body)
	s.logger.Printf("Stub service created user %s", user.GetByKey("id").StringValue())
	writeJSON(w, http.StatusCreated, withoutKey(user, "password"))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}
	sku := body.GetByKey("sku").StringValue()
	if sku == "" {
		writeError(w, http.StatusUnprocessableEntity, "sku is required")
		return
	}
	if price := body.GetByKey("price"); !price.IsNull() && !price.IsNumber() {
		writeError(w, http.StatusUnprocessableEntity, "price must be a number")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, dup := s.products.find(func(p ldvalue.Value) bool { return p.GetByKey("sku").StringValue() == sku }); dup {
		writeError(w, http.StatusConflict, fmt.Sprintf("sku %s already exists", sku))
		return
	}
	product := s.products.insert(body)
	s.logger.Printf("Stub service created product %s", product.GetByKey("id").StringValue())
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	body, ok := readObject(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	userID := body.GetByKey("userId").StringValue()
	if _, exists := s.users.get(userID); !exists {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("user %q does not exist", userID))
		return
	}
	for _, productID := range stringsOf(body.GetByKey("productIds")) {
		if _, exists := s.products.get(productID); !exists {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("product %q does not exist", productID))
			return
		}
	}
	order := s.orders.insert(body)
	s.logger.Printf("Stub service created order %s", order.GetByKey("id").StringValue())
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) getter(c *collection, hiddenKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		defer s.lock.Unlock()
		record, ok := c.get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if hiddenKey != "" {
			record = withoutKey(record, hiddenKey)
		}
		writeJSON(w, http.StatusOK, record)
	}
}

// deleter removes a record, unless an order refers to it through orderField.
func (s *Server) deleter(c *collection, kind, orderField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s.lock.Lock()
		defer s.lock.Unlock()
		if _, ok := c.get(id); !ok {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if orderField != "" {
			if order, referenced := s.orders.find(func(o ldvalue.Value) bool {
				return references(o.GetByKey(orderField), id)
			}); referenced {
				writeError(w, http.StatusConflict,
					fmt.Sprintf("%s %s is referenced by order %s", kind, id, order.GetByKey("id").StringValue()))
				return
			}
		}
		c.remove(id)
		s.deletions = append(s.deletions, kind+" "+id)
		s.logger.Printf("Stub service deleted %s %s", kind, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func references(field ldvalue.Value, id string) bool {
	if field.Type() == ldvalue.ArrayType {
		for _, s := range stringsOf(field) {
			if s == id {
				return true
			}
		}
		return false
	}
	return field.StringValue() == id
}

func readObject(w http.ResponseWriter, r *http.Request) (ldvalue.Value, bool) {
	var body ldvalue.Value
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type() != ldvalue.ObjectType {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return ldvalue.Null(), false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, body ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body.JSONString()))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ldvalue.ObjectBuild().Set("error", ldvalue.String(message)).Build())
}
