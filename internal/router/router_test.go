package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/usradmin/internal/apiclient"
	"github.com/patric-chuzhbe/usradmin/internal/auth"
	"github.com/patric-chuzhbe/usradmin/internal/db/memorystorage"
	"github.com/patric-chuzhbe/usradmin/internal/ipchecker"
	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/metrics"
	"github.com/patric-chuzhbe/usradmin/internal/mockapi"
	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/session"
	"github.com/patric-chuzhbe/usradmin/internal/views/loginview"
	"github.com/patric-chuzhbe/usradmin/internal/views/usersview"
)

const (
	testCookieName = "usradmin_session"
	testToken      = "QpwL5tke4Pnpja7X4"
)

var (
	firstPage = models.UsersPage{
		Page:       1,
		PerPage:    3,
		Total:      5,
		TotalPages: 2,
		Data: []models.User{
			{ID: 1, Email: "george.bluth@reqres.in", FirstName: "George", LastName: "Bluth"},
			{ID: 2, Email: "janet.weaver@reqres.in", FirstName: "Janet", LastName: "Weaver"},
			{ID: 3, Email: "emma.wong@reqres.in", FirstName: "Emma", LastName: "Wong"},
		},
	}
	secondPage = models.UsersPage{
		Page:       2,
		PerPage:    3,
		Total:      5,
		TotalPages: 2,
		Data: []models.User{
			{ID: 4, Email: "eve.holt@reqres.in", FirstName: "Eve", LastName: "Holt"},
			{ID: 5, Email: "charles.morris@reqres.in", FirstName: "Charles", LastName: "Morris"},
		},
	}
	demoCredentials = models.Credentials{Email: loginview.DemoEmail, Password: loginview.DemoPassword}
)

type testEnv struct {
	server      *httptest.Server
	api         *mockapi.APIMock
	client      *resty.Client
	sessionAuth *auth.Auth
}

type initOption func(*initOptions)

type initOptions struct {
	routerOptions []Option
}

func withRouterOptions(opts ...Option) initOption {
	return func(options *initOptions) {
		options.routerOptions = append(options.routerOptions, opts...)
	}
}

func setupTestRouter(t *testing.T, optionsProto ...initOption) *testEnv {
	t.Helper()
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	require.NoError(t, logger.Init("debug"))

	store, err := memorystorage.New()
	require.NoError(t, err)
	manager := session.NewManager(store)

	api := &mockapi.APIMock{}
	notifier := notify.NewSessionNotifier()
	sessionAuth := auth.New(manager, testCookieName, []byte("router-test-signing-key"))

	theRouter := New(
		loginview.New(api, manager, notifier),
		usersview.NewController(api, notifier),
		manager,
		sessionAuth,
		store,
		options.routerOptions...,
	)

	server := httptest.NewServer(theRouter)
	t.Cleanup(server.Close)

	return &testEnv{
		server:      server,
		api:         api,
		client:      resty.New().SetBaseURL(server.URL),
		sessionAuth: sessionAuth,
	}
}

// sessionCookie returns the session cookie the client currently holds, if any.
func (env *testEnv) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	serverURL, err := url.Parse(env.server.URL)
	require.NoError(t, err)

	for _, cookie := range env.client.GetClient().Jar.Cookies(serverURL) {
		if cookie.Name == testCookieName {
			return cookie
		}
	}

	return nil
}

// login signs the demo operator in and lands on the first users page.
func (env *testEnv) login(t *testing.T) *resty.Response {
	t.Helper()
	env.api.On("Login", mock.Anything, demoCredentials).
		Return(models.LoginResponse{Token: testToken}, nil).Once()
	env.api.On("ListUsers", mock.Anything, 1).Return(firstPage, nil).Once()

	resp, err := env.client.R().
		SetFormData(map[string]string{"email": demoCredentials.Email, "password": demoCredentials.Password}).
		Post("/login")
	require.NoError(t, err)

	return resp
}

func TestGetPing(t *testing.T) {
	env := setupTestRouter(t)

	resp, err := env.client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	env := setupTestRouter(t)

	resp, err := env.client.R().Get("/users")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "/login", resp.RawResponse.Request.URL.Path)
	assert.Contains(t, resp.String(), `name="password"`)
	assert.Contains(t, resp.String(), "cityslicka", "the form is prefilled with the demo credentials")
	env.api.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestPostLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := setupTestRouter(t)

		resp := env.login(t)

		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "/users", resp.RawResponse.Request.URL.Path)
		body := resp.String()
		assert.Contains(t, body, "Login successful!")
		assert.Contains(t, body, "George Bluth")
		assert.Contains(t, body, "Page 1 of 2")
		env.api.AssertExpectations(t)

		again, err := env.client.R().Get("/login")
		require.NoError(t, err)
		assert.Equal(t, "/users", again.RawResponse.Request.URL.Path, "an authenticated operator skips the login page")
		assert.NotContains(t, again.String(), "Login successful!", "a notification is shown once")
	})

	t.Run("rejected credentials", func(t *testing.T) {
		env := setupTestRouter(t)
		env.api.On("Login", mock.Anything, mock.Anything).
			Return(models.LoginResponse{}, &apiclient.Error{Kind: apiclient.KindAuth, Message: "user not found"}).Once()

		resp, err := env.client.R().
			SetFormData(map[string]string{"email": "peter@klaven", "password": "wrong"}).
			Post("/login")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
		assert.NotContains(t, resp.String(), "wrong", "the password is not rendered back")

		users, err := env.client.R().Get("/users")
		require.NoError(t, err)
		assert.Equal(t, "/login", users.RawResponse.Request.URL.Path)
	})

	t.Run("incomplete form", func(t *testing.T) {
		env := setupTestRouter(t)

		resp, err := env.client.R().
			SetFormData(map[string]string{"email": "", "password": "x"}).
			Post("/login")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
		env.api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestPostLoginRenewsSessionCookie(t *testing.T) {
	env := setupTestRouter(t)

	anonymous, err := env.client.R().Get("/login")
	require.NoError(t, err)
	assert.Empty(t, anonymous.Cookies(), "anonymous visitors get no session cookie")

	planted := httptest.NewRecorder()
	require.NoError(t, env.sessionAuth.SetSessionCookie(planted, "0f8fad5b-d9cb-469f-a165-70867728950e"))
	plantedCookie := planted.Result().Cookies()[0]
	serverURL, err := url.Parse(env.server.URL)
	require.NoError(t, err)
	env.client.GetClient().Jar.SetCookies(serverURL, []*http.Cookie{plantedCookie})
	require.NotNil(t, env.sessionCookie(t))

	env.login(t)

	issued := env.sessionCookie(t)
	require.NotNil(t, issued)
	assert.NotEqual(t, plantedCookie.Value, issued.Value, "login replaces the session cookie")

	attacker := resty.New().SetBaseURL(env.server.URL)
	users, err := attacker.R().SetCookie(plantedCookie).Get("/users")
	require.NoError(t, err)
	assert.Equal(t, "/login", users.RawResponse.Request.URL.Path, "the pre-login session stays anonymous")
}

func TestPostLogout(t *testing.T) {
	env := setupTestRouter(t)
	env.login(t)
	require.NotNil(t, env.sessionCookie(t))

	resp, err := env.client.R().Post("/logout")
	require.NoError(t, err)
	assert.Equal(t, "/login", resp.RawResponse.Request.URL.Path)
	assert.Nil(t, env.sessionCookie(t), "logout drops the session cookie")

	users, err := env.client.R().Get("/users")
	require.NoError(t, err)
	assert.Equal(t, "/login", users.RawResponse.Request.URL.Path)
}

func TestGetUsersPagination(t *testing.T) {
	env := setupTestRouter(t)
	env.login(t)

	env.api.On("ListUsers", mock.Anything, 2).Return(secondPage, nil).Once()

	resp, err := env.client.R().SetQueryParam("page", "2").Get("/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "Page 2 of 2")
	assert.Contains(t, resp.String(), "Charles Morris")

	cached, err := env.client.R().Get("/users")
	require.NoError(t, err)
	assert.Contains(t, cached.String(), "Charles Morris", "the displayed page is served from the session")

	next, err := env.client.R().Post("/users/next")
	require.NoError(t, err)
	assert.Contains(t, next.String(), "Page 2 of 2", "next on the last page stays put")

	env.api.On("ListUsers", mock.Anything, 1).Return(firstPage, nil).Once()
	previous, err := env.client.R().Post("/users/previous")
	require.NoError(t, err)
	assert.Contains(t, previous.String(), "Page 1 of 2")

	invalid, err := env.client.R().SetQueryParam("page", "zero").Get("/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode())

	env.api.AssertExpectations(t)
}

func TestGetUsersFetchFailure(t *testing.T) {
	env := setupTestRouter(t)
	env.login(t)

	env.api.On("ListUsers", mock.Anything, 2).
		Return(models.UsersPage{}, &apiclient.Error{Kind: apiclient.KindFetch, StatusCode: http.StatusInternalServerError}).Once()

	resp, err := env.client.R().SetQueryParam("page", "2").Get("/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "Page 1 of 2", "the previous page stays displayed")
	assert.Contains(t, resp.String(), "George Bluth")
}

func TestEditUser(t *testing.T) {
	edited := models.UserUpdateData{FirstName: "Jane", LastName: "Weaver", Email: "janet.weaver@reqres.in"}
	form := map[string]string{"first_name": edited.FirstName, "last_name": edited.LastName, "email": edited.Email}

	t.Run("success patches the cached entry", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		modal, err := env.client.R().Get("/users/2/edit")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, modal.StatusCode())
		assert.Contains(t, modal.String(), "Edit User")
		assert.Contains(t, modal.String(), `value="Janet"`)

		env.api.On("UpdateUser", mock.Anything, 2, edited).
			Return(models.UpdatedUser{UserUpdateData: edited, UpdatedAt: "2025-06-01T12:00:00.000Z"}, nil).Once()

		resp, err := env.client.R().SetFormData(form).Post("/users/2")
		require.NoError(t, err)
		assert.Equal(t, "/users", resp.RawResponse.Request.URL.Path)
		body := resp.String()
		assert.Contains(t, body, "User updated successfully")
		assert.Contains(t, body, "Jane Weaver")
		assert.NotContains(t, body, "Janet Weaver")
		assert.NotContains(t, body, "Edit User")
		env.api.AssertExpectations(t)
	})

	t.Run("remote failure keeps the dialog", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		_, err := env.client.R().Get("/users/2/edit")
		require.NoError(t, err)

		env.api.On("UpdateUser", mock.Anything, 2, edited).
			Return(models.UpdatedUser{}, &apiclient.Error{Kind: apiclient.KindUpdate}).Once()

		resp, err := env.client.R().SetFormData(form).Post("/users/2")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
		assert.Contains(t, resp.String(), "Edit User")
		assert.Contains(t, resp.String(), "Janet Weaver", "the list is not patched")
	})

	t.Run("invalid form", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		resp, err := env.client.R().
			SetFormData(map[string]string{"first_name": "Jane", "last_name": "", "email": "nope"}).
			Post("/users/2")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode())
		env.api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		resp, err := env.client.R().Get("/users/42/edit")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("success removes the entry and keeps the page count", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		modal, err := env.client.R().Get("/users/3/delete")
		require.NoError(t, err)
		assert.Contains(t, modal.String(), "Are you sure?")

		env.api.On("DeleteUser", mock.Anything, 3).Return(nil).Once()

		resp, err := env.client.R().Post("/users/3/delete")
		require.NoError(t, err)
		assert.Equal(t, "/users", resp.RawResponse.Request.URL.Path)
		body := resp.String()
		assert.Contains(t, body, "User deleted successfully")
		assert.NotContains(t, body, "Emma Wong")
		assert.Contains(t, body, "George Bluth")
		assert.Contains(t, body, "Page 1 of 2")
		env.api.AssertExpectations(t)
	})

	t.Run("remote failure keeps the entry", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		_, err := env.client.R().Get("/users/3/delete")
		require.NoError(t, err)
		env.api.On("DeleteUser", mock.Anything, 3).Return(&apiclient.Error{Kind: apiclient.KindDelete}).Once()

		resp, err := env.client.R().Post("/users/3/delete")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
		assert.Contains(t, resp.String(), "Emma Wong")
	})

	t.Run("cancel closes the dialog", func(t *testing.T) {
		env := setupTestRouter(t)
		env.login(t)

		_, err := env.client.R().Get("/users/3/delete")
		require.NoError(t, err)

		resp, err := env.client.R().Post("/users/modal/close")
		require.NoError(t, err)
		assert.NotContains(t, resp.String(), "Are you sure?")
		assert.Contains(t, resp.String(), "Emma Wong")
		env.api.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}

func TestGetMetrics(t *testing.T) {
	checker, err := ipchecker.New("10.0.0.0/8")
	require.NoError(t, err)
	m := metrics.New()
	m.IncrementLogins("success")

	env := setupTestRouter(t, withRouterOptions(WithMetrics(m.Handler(), checker)))

	trusted, err := env.client.R().SetHeader("X-Real-IP", "10.0.0.5").Get("/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, trusted.StatusCode())
	assert.Contains(t, trusted.String(), "usradmin_logins_total")

	untrusted, err := env.client.R().SetHeader("X-Real-IP", "192.168.0.5").Get("/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, untrusted.StatusCode())
}

func TestFailureStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadGateway, failureStatus(&apiclient.Error{Kind: apiclient.KindFetch}))
	assert.Equal(t, http.StatusInternalServerError, failureStatus(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, failureStatus(context.Canceled))
}
