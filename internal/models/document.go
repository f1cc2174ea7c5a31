package models

// Document is the whole persisted ledger state.
// Stores read and write it as a unit.
type Document struct {
	Users    []User    `json:"users"`
	Expenses []Expense `json:"expenses"`
}

// NewDocument returns an empty document with non-nil collections.
func NewDocument() *Document {
	return &Document{
		Users:    []User{},
		Expenses: []Expense{},
	}
}

// Normalize replaces nil collections with empty ones so that an absent
// collection in the persisted form reads the same as an empty one.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Expenses == nil {
		d.Expenses = []Expense{}
	}
	for i := range d.Expenses {
		if d.Expenses[i].Shares == nil {
			d.Expenses[i].Shares = []Share{}
		}
	}
}

// FindUser returns the user with the given ID.
func (d *Document) FindUser(id int64) (User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// FindUserByEmail returns the user whose email matches ignoring case.
func (d *Document) FindUserByEmail(email string) (User, bool) {
	for _, u := range d.Users {
		if u.SameEmail(email) {
			return u, true
		}
	}
	return User{}, false
}

// UserIDs returns the IDs of all users in insertion order.
func (d *Document) UserIDs() []int64 {
	ids := make([]int64, len(d.Users))
	for i, u := range d.Users {
		ids[i] = u.ID
	}
	return ids
}
