// model/booking.go
package model

import "time"

type BookingState string

const (
	BookingNew       BookingState = "NEW"
	BookingBooked    BookingState = "BOOKED"
	BookingCanceled  BookingState = "CANCELED"
	BookingDelivered BookingState = "DELIVERED"
	BookingDone      BookingState = "DONE"
)

// BookingPlace says where the books of a delivered booking reside.
type BookingPlace string

const (
	PlaceLibrary BookingPlace = "LIBRARY" // reading room
	PlaceUser    BookingPlace = "USER"    // subscription, books left the building
)

type Booking struct {
	ID       int64        `json:"id"`
	UserID   int64        `json:"user_id"`
	Books    []Book       `json:"books"`
	State    BookingState `json:"state"`
	Place    BookingPlace `json:"place"`
	Modified time.Time    `json:"modified"`
}

// NewBooking starts an empty working booking for a user.
func NewBooking(userID int64) *Booking {
	return &Booking{
		UserID:   userID,
		Books:    []Book{},
		State:    BookingNew,
		Place:    PlaceLibrary,
		Modified: time.Now().UTC(),
	}
}

// HasBook reports membership by book id.
func (b *Booking) HasBook(bookID int64) bool {
	for _, bk := range b.Books {
		if bk.ID == bookID {
			return true
		}
	}
	return false
}

// AddBook appends a book; adding an already-present book is a no-op.
// Reports whether the membership actually grew.
func (b *Booking) AddBook(book Book) bool {
	if b.HasBook(book.ID) {
		return false
	}
	b.Books = append(b.Books, book)
	return true
}

// RemoveBook drops a book by id. Reports whether it was a member.
func (b *Booking) RemoveBook(bookID int64) bool {
	for i, bk := range b.Books {
		if bk.ID == bookID {
			b.Books = append(b.Books[:i], b.Books[i+1:]...)
			return true
		}
	}
	return false
}
