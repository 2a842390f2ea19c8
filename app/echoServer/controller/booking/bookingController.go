package booking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/VetalSh/library/model"
	bs "github.com/VetalSh/library/service/booking"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

func actorFrom(c echo.Context) bs.Actor {
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(model.Role)
	return bs.Actor{ID: uid, Role: role}
}

func (h *Controller) writeErr(c echo.Context, op string, err error) error {
	switch bs.Code(err) {
	case bs.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "illegal booking state for this action"})
	case bs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case bs.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case bs.ErrNoCopies:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/bookings/books
func (h *Controller) AddBook(c echo.Context) error {
	var req AddBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	count, err := h.Svc.AddBook(c.Request().Context(), actorFrom(c), req.BookID)
	if err != nil {
		return h.writeErr(c, "booking add book", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"books_in_basket": count})
}

// DELETE /v1/bookings/books/:id
func (h *Controller) RemoveBook(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.RemoveBook(c.Request().Context(), actorFrom(c), id); err != nil {
		return h.writeErr(c, "booking remove book", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed"})
}

// POST /v1/bookings/book
func (h *Controller) Commit(c echo.Context) error {
	b, err := h.Svc.Commit(c.Request().Context(), actorFrom(c))
	if err != nil {
		return h.writeErr(c, "booking commit", err)
	}
	return c.JSON(http.StatusCreated, b)
}

// POST /v1/bookings/cancel — cancels the session-held working booking
func (h *Controller) CancelWorking(c echo.Context) error {
	if err := h.Svc.Cancel(c.Request().Context(), actorFrom(c), 0); err != nil {
		return h.writeErr(c, "booking cancel working", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "canceled"})
}

// POST /v1/bookings/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Cancel(c.Request().Context(), actorFrom(c), id); err != nil {
		return h.writeErr(c, "booking cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "canceled"})
}

// POST /v1/bookings/:id/deliver (librarian)
func (h *Controller) Deliver(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	var req DeliverReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	if err := h.Svc.Deliver(c.Request().Context(), actorFrom(c), id, req.Subscription); err != nil {
		return h.writeErr(c, "booking deliver", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "delivered"})
}

// POST /v1/bookings/:id/done (librarian)
func (h *Controller) Done(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := h.Svc.Complete(c.Request().Context(), actorFrom(c), id); err != nil {
		return h.writeErr(c, "booking done", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "done"})
}

// GET /v1/bookings/basket
func (h *Controller) Basket(c echo.Context) error {
	current, past, err := h.Svc.Basket(c.Request().Context(), actorFrom(c))
	if err != nil {
		return h.writeErr(c, "booking basket", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"current": current, "history": past})
}

// GET /v1/bookings/subscription
func (h *Controller) Subscription(c echo.Context) error {
	list, err := h.Svc.Subscription(c.Request().Context(), actorFrom(c))
	if err != nil {
		return h.writeErr(c, "booking subscription", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": list})
}

// GET /v1/bookings/:id (librarian)
func (h *Controller) Find(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	b, err := h.Svc.Find(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return h.writeErr(c, "booking find", err)
	}
	return c.JSON(http.StatusOK, b)
}
