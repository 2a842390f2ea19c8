// model/book.go
package model

type Book struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Year       int    `json:"year,omitempty"`
	KeepPeriod int64  `json:"keep_period"` // days a subscribed book may be kept before fines
	InStock    int64  `json:"in_stock"`
	Reserved   int64  `json:"reserved"`
}

// Available reports how many copies can still be promised to new bookings.
func (b Book) Available() int64 {
	return b.InStock - b.Reserved
}
