// Package api implements the route handlers behind the connection layer.
//
// The connection layer knows nothing about routes; it hands each parsed
// request to Handler.Handle and writes whatever response comes back. All
// business behavior (static pages, signup/login, the teapot) lives here.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coracle-hq/coracle/pkg/auth"
	"coracle-hq/coracle/pkg/httpwire"
)

const teapotArt = `
      I'm a Teapot, I can't brew coffee
         _______
        /       \
       |  O   O |
       |    ^    |
        \_______/
`

// Handler routes parsed requests. It satisfies the connection layer's
// dispatch callback.
type Handler struct {
	static *StaticCache
	store  auth.Store
	logger *slog.Logger

	// slowDelay is the artificial latency of the /slow route, used to
	// exercise the admission gate. Overridable in tests.
	slowDelay time.Duration
}

// NewHandler wires the routes to their collaborators.
func NewHandler(static *StaticCache, store auth.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		static:    static,
		store:     store,
		logger:    logger,
		slowDelay: 5 * time.Second,
	}
}

// Handle dispatches one request to its route and returns the response.
// The method switch is exhaustive over the supported method set.
func (h *Handler) Handle(req *httpwire.Request) *httpwire.Response {
	switch req.Method {
	case httpwire.GET:
		return h.handleGet(req)
	case httpwire.POST:
		return h.handlePost(req)
	case httpwire.PUT, httpwire.PATCH, httpwire.DELETE:
		return h.methodNotAllowed(req)
	default:
		return h.methodNotAllowed(req)
	}
}

func (h *Handler) handleGet(req *httpwire.Request) *httpwire.Response {
	if req.HasHeader("Brew") || req.URI == "/coffee" {
		return httpwire.NewResponse().
			WithStatus(httpwire.StatusTeapot).
			WithContentType(httpwire.TextPlain).
			WithBody([]byte(teapotArt)).
			WithCompression(req.CompressionRequested())
	}

	switch req.URI {
	case "/":
		return h.staticPage(req, "index.html")
	case "/home":
		return h.staticPage(req, "home.html")
	case "/slow":
		// Deliberately slow route; holds its admission slot the whole time.
		time.Sleep(h.slowDelay)
		return h.staticPage(req, "index.html")
	default:
		h.logger.Info("no matching route", "method", req.Method.String(), "uri", req.URI)
		return httpwire.NewResponse().
			WithStatus(httpwire.StatusNotFound).
			WithContentType(httpwire.TextPlain).
			WithBody([]byte("404: no matching route")).
			WithCompression(req.CompressionRequested())
	}
}

func (h *Handler) staticPage(req *httpwire.Request, name string) *httpwire.Response {
	body, err := h.static.Get(name)
	if err != nil {
		h.logger.Error("static file unavailable", "file", name, "error", err)
		return httpwire.NewResponse().
			WithStatus(httpwire.StatusInternalServerError).
			WithContentType(httpwire.TextPlain).
			WithBody([]byte("500: internal server error")).
			WithCompression(req.CompressionRequested())
	}
	return httpwire.NewResponse().
		WithBody(body).
		WithCompression(req.CompressionRequested())
}

// credentials is the JSON payload of the signup and login routes.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handlePost(req *httpwire.Request) *httpwire.Response {
	switch req.URI {
	case "/signup":
		return h.handleSignup(req)
	case "/login":
		return h.handleLogin(req)
	default:
		return h.methodNotAllowed(req)
	}
}

func (h *Handler) handleSignup(req *httpwire.Request) *httpwire.Response {
	resp := httpwire.NewResponse().
		WithContentType(httpwire.TextPlain).
		WithCompression(req.CompressionRequested())

	var creds credentials
	if err := json.Unmarshal([]byte(req.Body), &creds); err != nil {
		h.logger.Warn("signup with invalid JSON", "error", err)
		return resp.WithStatus(httpwire.StatusBadRequest).WithBody([]byte("invalid JSON"))
	}

	token, err := h.store.InsertUser(creds.Username, creds.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return resp.WithStatus(httpwire.StatusBadRequest).WithBody([]byte("user already exists"))
	case errors.Is(err, auth.ErrBadUsername), errors.Is(err, auth.ErrInvalidCredentials):
		return resp.WithStatus(httpwire.StatusBadRequest).WithBody([]byte("invalid username or password"))
	case err != nil:
		h.logger.Error("signup failed", "user", creds.Username, "error", err)
		return resp.WithStatus(httpwire.StatusInternalServerError).WithBody([]byte("could not create user"))
	}

	h.logger.Info("user created", "user", creds.Username)
	return resp.WithStatus(httpwire.StatusCreated).
		WithBody([]byte("new user successfully created")).
		AddHeader("Set-Cookie", sessionCookie(token))
}

func (h *Handler) handleLogin(req *httpwire.Request) *httpwire.Response {
	resp := httpwire.NewResponse().
		WithContentType(httpwire.TextPlain).
		WithCompression(req.CompressionRequested())

	var creds credentials
	if err := json.Unmarshal([]byte(req.Body), &creds); err != nil {
		h.logger.Warn("login with invalid JSON", "error", err)
		return resp.WithStatus(httpwire.StatusBadRequest).WithBody([]byte("invalid JSON"))
	}

	token, err := h.store.VerifyUser(creds.Username, creds.Password)
	if err != nil {
		h.logger.Warn("login rejected", "user", creds.Username)
		return resp.WithStatus(httpwire.StatusUnauthorized).WithBody([]byte("invalid credentials"))
	}

	h.logger.Info("user logged in", "user", creds.Username)
	return resp.WithStatus(httpwire.StatusOK).
		WithBody([]byte("login successful")).
		AddHeader("Set-Cookie", sessionCookie(token))
}

func (h *Handler) methodNotAllowed(req *httpwire.Request) *httpwire.Response {
	h.logger.Info("method not allowed", "method", req.Method.String(), "uri", req.URI)
	return httpwire.NewResponse().
		WithStatus(httpwire.StatusMethodNotAllowed).
		WithContentType(httpwire.TextPlain).
		WithBody([]byte("405: method not allowed")).
		WithCompression(req.CompressionRequested())
}

func sessionCookie(token string) string {
	return fmt.Sprintf("session=%s; HttpOnly", token)
}
