package usersview

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
)

type usersLister interface {
	ListUsers(ctx context.Context, page int) (models.UsersPage, error)
}

type userUpdater interface {
	UpdateUser(ctx context.Context, id int, data models.UserUpdateData) (models.UpdatedUser, error)
}

type userDeleter interface {
	DeleteUser(ctx context.Context, id int) error
}

type usersAPI interface {
	usersLister
	userUpdater
	userDeleter
}

type notifier interface {
	Notify(ctx context.Context, level notify.Level, text string)
}

var (
	ErrNoEditOpen   = errors.New("no edit dialog is open")
	ErrNoDeleteOpen = errors.New("no delete confirmation is open")
	ErrStaleFetch   = errors.New("a newer page fetch superseded this one")
	ErrInvalidPage  = errors.New("page must be a positive number")
)

// Controller drives a State through the remote user service.
type Controller struct {
	api      usersAPI
	notifier notifier
}

func NewController(api usersAPI, notifier notifier) *Controller {
	return &Controller{
		api:      api,
		notifier: notifier,
	}
}

// Mount fetches the current page the first time the page is shown.
func (c *Controller) Mount(ctx context.Context, state *State) error {
	if state.Mounted() {
		return nil
	}

	return c.fetch(ctx, state, state.CurrentPage())
}

// GoTo switches to page, fetching it when it differs from the displayed one.
func (c *Controller) GoTo(ctx context.Context, state *State, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if state.Mounted() && state.CurrentPage() == page {
		return nil
	}

	return c.fetch(ctx, state, page)
}

// Previous fetches the previous page; it does nothing on the first page.
func (c *Controller) Previous(ctx context.Context, state *State) error {
	page, ok := state.PreviousPage()
	if !ok {
		return nil
	}

	return c.fetch(ctx, state, page)
}

// Next fetches the next page; it does nothing on the last known page.
func (c *Controller) Next(ctx context.Context, state *State) error {
	page, ok := state.NextPage()
	if !ok {
		return nil
	}

	return c.fetch(ctx, state, page)
}

func (c *Controller) fetch(ctx context.Context, state *State, page int) error {
	ticket := state.BeginFetch(page)

	usersPage, err := c.api.ListUsers(ctx, page)
	if err != nil {
		state.FailFetch(ticket)
		logger.Log.Errorln("Error fetching users:", zap.Error(err))

		return err
	}

	if !state.ApplyPage(ticket, usersPage) {
		logger.Log.Debugln("dropping stale users page", "page", page)

		return ErrStaleFetch
	}

	return nil
}

// SubmitEdit sends the edit form. Only after the remote service accepted it is
// the displayed entry patched with the submitted fields.
func (c *Controller) SubmitEdit(ctx context.Context, state *State, data models.UserUpdateData) error {
	modal, ok := state.EditModal()
	if !ok {
		return ErrNoEditOpen
	}
	state.ChangeEditForm(data)

	if _, err := c.api.UpdateUser(ctx, modal.UserID, data); err != nil {
		logger.Log.Errorln("Error updating user:", zap.Error(err))

		return err
	}

	state.ApplyUpdate(modal.UserID, data)
	c.notifier.Notify(ctx, notify.LevelSuccess, "User updated successfully")

	return nil
}

// ConfirmDelete deletes the user of the open confirmation and, on success,
// drops it from the displayed list.
func (c *Controller) ConfirmDelete(ctx context.Context, state *State) error {
	modal, ok := state.DeleteModal()
	if !ok {
		return ErrNoDeleteOpen
	}

	if err := c.api.DeleteUser(ctx, modal.UserID); err != nil {
		logger.Log.Errorln("Error deleting user:", zap.Error(err))

		return err
	}

	state.ApplyDelete(modal.UserID)
	c.notifier.Notify(ctx, notify.LevelSuccess, "User deleted successfully")

	return nil
}
