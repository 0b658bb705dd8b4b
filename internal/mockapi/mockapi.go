// Package mockapi provides a testify-based mock of the remote user service client.
// It is used by the view and router tests to simulate remote answers and failures.
package mockapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
)

// APIMock is a testify mock implementing every API client method the views use.
type APIMock struct {
	mock.Mock

	// OnListUsers, if set, answers ListUsers instead of testify's generic handler.
	// Useful for fakes that must block or depend on the requested page.
	OnListUsers func(ctx context.Context, page int) (models.UsersPage, error)
}

// Login mocks the credential exchange.
func (m *APIMock) Login(ctx context.Context, credentials models.Credentials) (models.LoginResponse, error) {
	args := m.Called(ctx, credentials)
	return args.Get(0).(models.LoginResponse), args.Error(1)
}

// ListUsers mocks fetching one page of users.
func (m *APIMock) ListUsers(ctx context.Context, page int) (models.UsersPage, error) {
	if m.OnListUsers != nil {
		return m.OnListUsers(ctx, page)
	}
	args := m.Called(ctx, page)
	return args.Get(0).(models.UsersPage), args.Error(1)
}

// UpdateUser mocks a PUT of the mutable user fields.
func (m *APIMock) UpdateUser(
	ctx context.Context,
	id int,
	data models.UserUpdateData,
) (models.UpdatedUser, error) {
	args := m.Called(ctx, id, data)
	return args.Get(0).(models.UpdatedUser), args.Error(1)
}

// DeleteUser mocks removing a user.
func (m *APIMock) DeleteUser(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// NotifierMock records notifications.
type NotifierMock struct {
	mock.Mock
}

// Notify records the notification.
func (m *NotifierMock) Notify(ctx context.Context, level notify.Level, text string) {
	m.Called(ctx, level, text)
}
