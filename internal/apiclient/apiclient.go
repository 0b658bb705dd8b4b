// Package apiclient wraps the remote user service's REST endpoints.
// Every call is made exactly once; a failure is reported to the notifier
// and then returned to the caller as an *Error.
package apiclient

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
)

const (
	opLogin  = "login"
	opList   = "list_users"
	opUpdate = "update_user"
	opDelete = "delete_user"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

const (
	msgLoginFailed  = "Login failed"
	msgFetchFailed  = "Failed to fetch users"
	msgUpdateFailed = "Failed to update user"
	msgDeleteFailed = "Failed to delete user"
)

type notifier interface {
	Notify(ctx context.Context, level notify.Level, text string)
}

type callRecorder interface {
	ObserveRemoteCall(op, outcome string, duration time.Duration)
}

// TokenSource returns the session token to attach to a call, or "".
type TokenSource func(ctx context.Context) string

type Client struct {
	http        *resty.Client
	notifier    notifier
	recorder    callRecorder
	tokenSource TokenSource
}

type Option func(*Client)

// WithAPIKey sends key in the x-api-key header of every call.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.http.SetHeader("x-api-key", key)
		}
	}
}

// WithTokenSource attaches the session token as a bearer token when there is one.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = source
	}
}

// WithCallRecorder records the outcome and duration of every call.
func WithCallRecorder(recorder callRecorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// New creates a client for the service rooted at baseURL, e.g. https://reqres.in/api.
func New(baseURL string, notifier notifier, options ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		notifier: notifier,
	}
	for _, option := range options {
		option(c)
	}

	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.tokenSource != nil {
		if token := c.tokenSource(ctx); token != "" {
			req.SetAuthToken(token)
		}
	}

	return req
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	c.recorder.ObserveRemoteCall(op, outcome, time.Since(start))
}

// fail notifies the operator once and builds the error handed back to the caller.
func (c *Client) fail(ctx context.Context, kind Kind, statusCode int, message string, cause error) error {
	c.notifier.Notify(ctx, notify.LevelError, message)

	return &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Err:        cause,
	}
}

// Login exchanges credentials for a session token. The message of a rejected
// login is taken from the remote error body when there is one.
func (c *Client) Login(ctx context.Context, credentials models.Credentials) (result models.LoginResponse, err error) {
	defer func(start time.Time) { c.observe(opLogin, start, err) }(time.Now())

	var failure models.ErrorResponse
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(credentials).
		SetResult(&result).
		SetError(&failure).
		Post("/login")
	if err != nil {
		return models.LoginResponse{}, c.fail(ctx, KindAuth, 0, err.Error(), err)
	}

	if resp.IsError() {
		message := failure.Error
		if message == "" {
			message = msgLoginFailed
		}
		return models.LoginResponse{}, c.fail(ctx, KindAuth, resp.StatusCode(), message, nil)
	}

	if result.Token == "" {
		return models.LoginResponse{}, c.fail(ctx, KindAuth, resp.StatusCode(), msgLoginFailed, nil)
	}

	return result, nil
}

// ListUsers fetches one page of users. Pages are 1-based.
func (c *Client) ListUsers(ctx context.Context, page int) (result models.UsersPage, err error) {
	defer func(start time.Time) { c.observe(opList, start, err) }(time.Now())

	resp, err := c.request(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetResult(&result).
		Get("/users")
	if err != nil {
		return models.UsersPage{}, c.fail(ctx, KindFetch, 0, err.Error(), err)
	}

	if resp.IsError() {
		return models.UsersPage{}, c.fail(ctx, KindFetch, resp.StatusCode(), msgFetchFailed, nil)
	}

	return result, nil
}

// UpdateUser sends the mutable fields of user id and returns the remote representation.
func (c *Client) UpdateUser(
	ctx context.Context,
	id int,
	data models.UserUpdateData,
) (result models.UpdatedUser, err error) {
	defer func(start time.Time) { c.observe(opUpdate, start, err) }(time.Now())

	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", strconv.Itoa(id)).
		SetBody(data).
		SetResult(&result).
		Put("/users/{id}")
	if err != nil {
		return models.UpdatedUser{}, c.fail(ctx, KindUpdate, 0, err.Error(), err)
	}

	if resp.IsError() {
		return models.UpdatedUser{}, c.fail(ctx, KindUpdate, resp.StatusCode(), msgUpdateFailed, nil)
	}

	return result, nil
}

// DeleteUser removes user id. Success is signaled by the status alone.
func (c *Client) DeleteUser(ctx context.Context, id int) (err error) {
	defer func(start time.Time) { c.observe(opDelete, start, err) }(time.Now())

	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		Delete("/users/{id}")
	if err != nil {
		return c.fail(ctx, KindDelete, 0, err.Error(), err)
	}

	if resp.IsError() {
		return c.fail(ctx, KindDelete, resp.StatusCode(), msgDeleteFailed, nil)
	}

	return nil
}
