package echoServer

import (
	"github.com/labstack/echo/v4"

	"github.com/VetalSh/library/app/echoServer/controller/auth"
	"github.com/VetalSh/library/app/echoServer/controller/book"
	"github.com/VetalSh/library/app/echoServer/controller/booking"
	"github.com/VetalSh/library/app/echoServer/controller/user"
	"github.com/VetalSh/library/model"
)

type C struct {
	Auth    *auth.Controller
	Book    *book.Controller
	Booking *booking.Controller
	User    *user.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	authed := e.Group("/v1", JWTAuth(c.JWTSecret)...)

	// User administration
	authed.GET("/users", c.User.List, RequireRole(model.RoleAdmin))
	authed.PUT("/users/:id/state", c.User.SetState, RequireRole(model.RoleAdmin))
	authed.DELETE("/users/:id", c.User.Delete, RequireRole(model.RoleAdmin))

	// Books
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	authed.POST("/books", c.Book.Create, RequireRole(model.RoleAdmin))

	// Basket (USER role)
	authed.POST("/bookings/books", c.Booking.AddBook)
	authed.DELETE("/bookings/books/:id", c.Booking.RemoveBook)
	authed.POST("/bookings/book", c.Booking.Commit)
	authed.POST("/bookings/cancel", c.Booking.CancelWorking)
	authed.GET("/bookings/basket", c.Booking.Basket)
	authed.GET("/bookings/subscription", c.Booking.Subscription)

	// Lifecycle on committed bookings
	authed.POST("/bookings/:id/cancel", c.Booking.Cancel)
	authed.POST("/bookings/:id/deliver", c.Booking.Deliver, RequireRole(model.RoleLibrarian))
	authed.POST("/bookings/:id/done", c.Booking.Done, RequireRole(model.RoleLibrarian))
	authed.GET("/bookings/:id", c.Booking.Find, RequireRole(model.RoleLibrarian))
}
