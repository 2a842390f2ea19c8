package booking

type AddBookReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type DeliverReq struct {
	// Subscription delivers the books to the user (keep-period applies);
	// otherwise they stay in the reading room.
	Subscription bool `json:"subscription"`
}
