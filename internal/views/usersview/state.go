// Package usersview holds the state of the paginated user management page and
// the reducers that change it. Reducers that mirror a remote mutation are only
// ever applied after the remote service confirmed it.
package usersview

import (
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/usradmin/internal/models"
)

// EditModal is the open edit dialog of one user.
type EditModal struct {
	UserID int
	Data   models.UserUpdateData
}

// DeleteModal is the open delete confirmation of one user.
type DeleteModal struct {
	UserID int
}

// Ticket identifies one page fetch. Only the latest ticket may apply its result.
type Ticket struct {
	Page       int
	generation uint64
}

// State is the per-session user management page.
// The zero value is not usable, use New.
type State struct {
	mu          sync.Mutex
	currentPage int
	totalPages  int
	users       []models.User
	busy        bool
	mounted     bool
	generation  uint64
	edit        *EditModal
	delete      *DeleteModal
}

// Snapshot is an immutable copy of State taken for rendering.
type Snapshot struct {
	CurrentPage int
	TotalPages  int
	Users       []models.User
	Busy        bool
	Mounted     bool
	Edit        *EditModal
	Delete      *DeleteModal
	CanPrevious bool
	CanNext     bool
}

func New() *State {
	return &State{
		currentPage: 1,
		totalPages:  0,
		users:       []models.User{},
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := Snapshot{
		CurrentPage: s.currentPage,
		TotalPages:  s.totalPages,
		Users:       append([]models.User(nil), s.users...),
		Busy:        s.busy,
		Mounted:     s.mounted,
		CanPrevious: s.canPrevious(),
		CanNext:     s.canNext(),
	}
	if s.edit != nil {
		edit := *s.edit
		result.Edit = &edit
	}
	if s.delete != nil {
		del := *s.delete
		result.Delete = &del
	}

	return result
}

func (s *State) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentPage
}

func (s *State) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mounted
}

// BeginFetch marks the state busy and hands out the ticket the result must be applied with.
// A newer BeginFetch invalidates every earlier ticket.
func (s *State) BeginFetch(page int) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.busy = true

	return Ticket{Page: page, generation: s.generation}
}

// ApplyPage replaces the list and the pagination metadata wholesale and closes any open dialog.
// It returns false and changes nothing when ticket is stale.
func (s *State) ApplyPage(ticket Ticket, page models.UsersPage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.generation != s.generation {
		return false
	}

	s.busy = false
	s.mounted = true
	s.edit, s.delete = nil, nil
	s.users = append([]models.User{}, page.Data...)
	s.totalPages = page.TotalPages
	s.currentPage = ticket.Page
	if page.Page > 0 {
		s.currentPage = page.Page
	}

	return true
}

// FailFetch clears the busy flag of the latest fetch and keeps the previous page.
func (s *State) FailFetch(ticket Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.generation != s.generation {
		return
	}
	s.busy = false
}

func (s *State) canPrevious() bool {
	return s.currentPage != 1
}

func (s *State) canNext() bool {
	return s.currentPage < s.totalPages
}

// PreviousPage returns the page before the current one, if there is one.
func (s *State) PreviousPage() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentPage > 1 {
		return s.currentPage - 1, true
	}

	return s.currentPage, false
}

// NextPage returns the page after the current one while the last known page is not reached.
func (s *State) NextPage() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentPage < s.totalPages {
		return s.currentPage + 1, true
	}

	return s.currentPage, false
}

func (s *State) findUser(id int) (models.User, bool) {
	found := funk.Find(s.users, func(u models.User) bool { return u.ID == id })
	if found == nil {
		return models.User{}, false
	}

	return found.(models.User), true
}

// OpenEdit opens the edit dialog pre-populated with the user's mutable fields.
func (s *State) OpenEdit(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	usr, ok := s.findUser(id)
	if !ok {
		return false
	}

	s.delete = nil
	s.edit = &EditModal{
		UserID: usr.ID,
		Data: models.UserUpdateData{
			FirstName: usr.FirstName,
			LastName:  usr.LastName,
			Email:     usr.Email,
		},
	}

	return true
}

// ChangeEditForm stores what the operator typed so a failed submit re-renders it.
func (s *State) ChangeEditForm(data models.UserUpdateData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil {
		return
	}
	s.edit.Data = data
}

func (s *State) EditModal() (EditModal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil {
		return EditModal{}, false
	}

	return *s.edit, true
}

// ApplyUpdate patches the user's mutable fields with data and closes the edit dialog.
// Every other entry is left untouched.
func (s *State) ApplyUpdate(id int, data models.UserUpdateData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		s.users[i].FirstName = data.FirstName
		s.users[i].LastName = data.LastName
		s.users[i].Email = data.Email
	}

	if s.edit != nil && s.edit.UserID == id {
		s.edit = nil
	}
}

// OpenDelete opens the delete confirmation of the user.
func (s *State) OpenDelete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findUser(id); !ok {
		return false
	}

	s.edit = nil
	s.delete = &DeleteModal{UserID: id}

	return true
}

func (s *State) DeleteModal() (DeleteModal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delete == nil {
		return DeleteModal{}, false
	}

	return *s.delete, true
}

// ApplyDelete removes the user from the list and closes the confirmation.
// Pagination counters are not recomputed.
func (s *State) ApplyDelete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = funk.Filter(s.users, func(u models.User) bool { return u.ID != id }).([]models.User)

	if s.delete != nil && s.delete.UserID == id {
		s.delete = nil
	}
}

// CloseModals closes any open dialog without touching the list.
func (s *State) CloseModals() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit = nil
	s.delete = nil
}
