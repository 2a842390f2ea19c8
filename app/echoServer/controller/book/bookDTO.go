package book

type CreateBookReq struct {
	Title      string `json:"title" validate:"required"`
	Author     string `json:"author" validate:"required"`
	Year       int    `json:"year"`
	KeepPeriod int64  `json:"keep_period" validate:"required,gt=0"`
	InStock    int64  `json:"in_stock" validate:"gte=0"`
}
