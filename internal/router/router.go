// Package router assembles the HTTP front end: the login page, the paginated
// user management page with its edit and delete dialogs, and the service
// endpoints (/ping, /metrics).
package router

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usradmin/internal/apiclient"
	"github.com/patric-chuzhbe/usradmin/internal/auth"
	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/session"
	"github.com/patric-chuzhbe/usradmin/internal/views/loginview"
	"github.com/patric-chuzhbe/usradmin/internal/views/usersview"
)

const (
	titleLogin = "Login"
	titleUsers = "User Management"

	msgInvalidEditForm = "First name, last name and a valid email are required"
)

type loginSubmitter interface {
	Submit(ctx context.Context, s *session.Session, form loginview.Form) (loginview.Result, error)
}

type usersController interface {
	Mount(ctx context.Context, state *usersview.State) error
	GoTo(ctx context.Context, state *usersview.State, page int) error
	Previous(ctx context.Context, state *usersview.State) error
	Next(ctx context.Context, state *usersview.State) error
	SubmitEdit(ctx context.Context, state *usersview.State, data models.UserUpdateData) error
	ConfirmDelete(ctx context.Context, state *usersview.State) error
}

type sessionLogouter interface {
	Logout(ctx context.Context, s *session.Session) error
}

type authenticator interface {
	LoadSession(h http.Handler) http.Handler
	RequireAuthenticated(h http.Handler) http.Handler
	RedirectAuthenticated(h http.Handler) http.Handler
	SetSessionCookie(response http.ResponseWriter, sessionID string) error
	ClearSessionCookie(response http.ResponseWriter)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type trustGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

type Router struct {
	login    loginSubmitter
	users    usersController
	sessions sessionLogouter
	cookies  authenticator
	db       pinger
	validate *validator.Validate
}

type pageData struct {
	Title         string
	Flashes       []notify.Message
	Authenticated bool
	Login         loginview.Form
	Users         usersview.Snapshot
	EditError     string
}

type options struct {
	metricsHandler http.Handler
	metricsGuard   trustGuard
}

type Option func(*options)

// WithMetrics serves handler on /metrics for the clients guard lets through.
func WithMetrics(handler http.Handler, guard trustGuard) Option {
	return func(o *options) {
		o.metricsHandler = handler
		o.metricsGuard = guard
	}
}

// New builds the chi mux of the admin front end.
func New(
	login loginSubmitter,
	users usersController,
	sessions sessionLogouter,
	authMiddleware authenticator,
	db pinger,
	opts ...Option,
) *chi.Mux {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	rtr := &Router{
		login:    login,
		users:    users,
		sessions: sessions,
		cookies:  authMiddleware,
		db:       db,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		middleware.Compress(5, "text/html", "text/plain"),
	)

	router.Get(`/ping`, rtr.GetPing)
	if o.metricsHandler != nil {
		if o.metricsGuard != nil {
			router.With(o.metricsGuard.TrustedOnly).Handle(`/metrics`, o.metricsHandler)
		} else {
			router.Handle(`/metrics`, o.metricsHandler)
		}
	}

	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.LoadSession)

		r.Get(`/`, func(response http.ResponseWriter, request *http.Request) {
			http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
		})

		r.With(authMiddleware.RedirectAuthenticated).Get(`/login`, rtr.GetLogin)
		r.With(authMiddleware.RedirectAuthenticated).Post(`/login`, rtr.PostLogin)
		r.Post(`/logout`, rtr.PostLogout)

		r.Route(`/users`, func(r chi.Router) {
			r.Use(authMiddleware.RequireAuthenticated)

			r.Get(`/`, rtr.GetUsers)
			r.Post(`/previous`, rtr.PostUsersPrevious)
			r.Post(`/next`, rtr.PostUsersNext)
			r.Post(`/modal/close`, rtr.PostUsersModalClose)
			r.Get(`/{id}/edit`, rtr.GetUsersEdit)
			r.Post(`/{id}`, rtr.PostUsersUpdate)
			r.Get(`/{id}/delete`, rtr.GetUsersDelete)
			r.Post(`/{id}/delete`, rtr.PostUsersDelete)
		})
	})

	return router
}

func (rtr *Router) render(
	response http.ResponseWriter,
	request *http.Request,
	status int,
	name string,
	data pageData,
) {
	if s, ok := auth.FromContext(request.Context()); ok {
		data.Flashes = s.PopFlashes()
		data.Authenticated = s.IsAuthenticated()
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Log.Errorln("Error calling the `templates.ExecuteTemplate()`: ", zap.Error(err))
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(status)
	if _, err := buf.WriteTo(response); err != nil {
		logger.Log.Debugln("Error writing the response body: ", zap.Error(err))
	}
}

func (rtr *Router) renderUsers(
	response http.ResponseWriter,
	request *http.Request,
	status int,
	state *usersview.State,
	editError string,
) {
	rtr.render(response, request, status, "users.html", pageData{
		Title:     titleUsers,
		Users:     state.Snapshot(),
		EditError: editError,
	})
}

// sessionFrom returns the session of the request. The session middleware
// guarantees one exists on every route that calls it.
func sessionFrom(request *http.Request) *session.Session {
	s, ok := auth.FromContext(request.Context())
	if !ok {
		panic("router: no session in request context")
	}

	return s
}

func userIDParam(request *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(request, "id"))
	if err != nil || id < 1 {
		return 0, false
	}

	return id, true
}

// failureStatus maps a remote failure to the status the dialog is re-rendered with.
func failureStatus(err error) int {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func (rtr *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rtr.db.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `rtr.db.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	response.WriteHeader(http.StatusOK)
}

func (rtr *Router) GetLogin(response http.ResponseWriter, request *http.Request) {
	rtr.render(response, request, http.StatusOK, "login.html", pageData{
		Title: titleLogin,
		Login: loginview.NewForm(),
	})
}

func (rtr *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)

		return
	}

	form := loginview.Form{
		Email:    request.PostFormValue("email"),
		Password: request.PostFormValue("password"),
	}

	result, err := rtr.login.Submit(request.Context(), sessionFrom(request), form)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, loginview.ErrInvalidForm) {
			status = http.StatusUnprocessableEntity
		}
		rtr.render(response, request, status, "login.html", pageData{
			Title: titleLogin,
			Login: result.Form,
		})

		return
	}

	if err := rtr.cookies.SetSessionCookie(response, result.Session.ID()); err != nil {
		logger.Log.Errorln("Error calling the `rtr.cookies.SetSessionCookie()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	http.Redirect(response, request, result.Redirect, http.StatusSeeOther)
}

func (rtr *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	if err := rtr.sessions.Logout(request.Context(), sessionFrom(request)); err != nil {
		logger.Log.Errorln("Error calling the `rtr.sessions.Logout()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	rtr.cookies.ClearSessionCookie(response)
	http.Redirect(response, request, auth.LoginPath, http.StatusSeeOther)
}

// GetUsers fetches the page on first display or when ?page names another page;
// otherwise it renders the cached list as it was last patched.
func (rtr *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()

	var err error
	if pageParam := request.URL.Query().Get("page"); pageParam != "" {
		page, convErr := strconv.Atoi(pageParam)
		if convErr != nil {
			http.Error(response, usersview.ErrInvalidPage.Error(), http.StatusBadRequest)

			return
		}
		err = rtr.users.GoTo(request.Context(), state, page)
	} else {
		err = rtr.users.Mount(request.Context(), state)
	}

	if errors.Is(err, usersview.ErrInvalidPage) {
		http.Error(response, err.Error(), http.StatusBadRequest)

		return
	}

	rtr.renderUsers(response, request, http.StatusOK, state, "")
}

func (rtr *Router) PostUsersPrevious(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()
	_ = rtr.users.Previous(request.Context(), state)

	http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
}

func (rtr *Router) PostUsersNext(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()
	_ = rtr.users.Next(request.Context(), state)

	http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
}

func (rtr *Router) PostUsersModalClose(response http.ResponseWriter, request *http.Request) {
	sessionFrom(request).Users().CloseModals()

	http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
}

func (rtr *Router) GetUsersEdit(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()

	id, ok := userIDParam(request)
	if !ok || !state.OpenEdit(id) {
		http.NotFound(response, request)

		return
	}

	rtr.renderUsers(response, request, http.StatusOK, state, "")
}

func (rtr *Router) PostUsersUpdate(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()

	id, ok := userIDParam(request)
	if !ok {
		http.NotFound(response, request)

		return
	}
	if modal, open := state.EditModal(); !open || modal.UserID != id {
		if !state.OpenEdit(id) {
			http.NotFound(response, request)

			return
		}
	}

	if err := request.ParseForm(); err != nil {
		http.Error(response, err.Error(), http.StatusBadRequest)

		return
	}

	data := models.UserUpdateData{
		FirstName: request.PostFormValue("first_name"),
		LastName:  request.PostFormValue("last_name"),
		Email:     request.PostFormValue("email"),
	}
	if err := rtr.validate.Struct(data); err != nil {
		state.ChangeEditForm(data)
		rtr.renderUsers(response, request, http.StatusUnprocessableEntity, state, msgInvalidEditForm)

		return
	}

	if err := rtr.users.SubmitEdit(request.Context(), state, data); err != nil {
		rtr.renderUsers(response, request, failureStatus(err), state, "")

		return
	}

	http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
}

func (rtr *Router) GetUsersDelete(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()

	id, ok := userIDParam(request)
	if !ok || !state.OpenDelete(id) {
		http.NotFound(response, request)

		return
	}

	rtr.renderUsers(response, request, http.StatusOK, state, "")
}

func (rtr *Router) PostUsersDelete(response http.ResponseWriter, request *http.Request) {
	state := sessionFrom(request).Users()

	id, ok := userIDParam(request)
	if !ok {
		http.NotFound(response, request)

		return
	}
	if modal, open := state.DeleteModal(); !open || modal.UserID != id {
		if !state.OpenDelete(id) {
			http.NotFound(response, request)

			return
		}
	}

	if err := rtr.users.ConfirmDelete(request.Context(), state); err != nil {
		rtr.renderUsers(response, request, failureStatus(err), state, "")

		return
	}

	http.Redirect(response, request, auth.UsersPath, http.StatusSeeOther)
}
