package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/konki-burger/internal/httpx"
	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/order"
	"github.com/MikeMC777/konki-burger/internal/product"
	"github.com/MikeMC777/konki-burger/internal/session"
	"github.com/MikeMC777/konki-burger/internal/user"
)

// LoginRequest payload of the administrator sign-in.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"konkiburger@gmail.com"`
	Password string `json:"password" binding:"required"`
}

// AdminChecker answers whether a user may use the back office. Both the
// local user service and the gRPC directory client satisfy it.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id string) (bool, error)
}

// fallbackChecker asks the directory first and the local service when the
// directory cannot be reached.
type fallbackChecker struct {
	remote AdminChecker
	local  AdminChecker
}

func (f fallbackChecker) IsAdmin(ctx context.Context, id string) (bool, error) {
	ok, err := f.remote.IsAdmin(ctx, id)
	if err == nil {
		return ok, nil
	}
	log.Printf("[admin] directory unavailable, checking locally: %v", err)
	return f.local.IsAdmin(ctx, id)
}

type accounts interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

type orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status, pickupTime string) (*order.StatusResult, error)
	Dashboard(ctx context.Context, users, products order.Counter) (*order.Summary, error)
}

func productPath(id string) string { return "products/" + id }

// RequireAdmin lets through only logged-in administrators.
func RequireAdmin(sessions *session.Store, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := sessions.UserID(c)
		if uid == "" {
			httpx.Fail(c, http.StatusUnauthorized, "login required")
			return
		}
		ok, err := admins.IsAdmin(c.Request.Context(), uid)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if !ok {
			httpx.Fail(c, http.StatusForbidden, "access restricted to administrators")
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

// @Summary     Administrator login
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body LoginRequest true "credentials"
// @Success     200 {object} user.User
// @Failure     403 {object} httpx.HTTPError
// @Router      /admin/login [post]
func adminLoginHandler(sessions *session.Store, users accounts, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ctx := c.Request.Context()
		u, err := users.Authenticate(ctx, in.Email, in.Password)
		if errors.Is(err, user.ErrInvalidCredential) {
			httpx.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		ok, err := admins.IsAdmin(ctx, u.ID)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if !ok {
			log.Printf("[admin] denied uid=%s", u.ID)
			httpx.Fail(c, http.StatusForbidden, "access restricted to administrators")
			return
		}
		if err := sessions.Login(c, u.ID); err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary     Administrator logout
// @Tags        auth
// @Success     204
// @Router      /admin/logout [post]
func adminLogoutHandler(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.Logout(c); err != nil {
			httpx.Internal(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary     Counts and latest orders
// @Tags        dashboard
// @Produce     json
// @Success     200 {object} order.Summary
// @Router      /admin/dashboard [get]
func dashboardHandler(svc orders, users accounts, products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := svc.Dashboard(c.Request.Context(), users, products)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if sum.Recent == nil {
			sum.Recent = []order.Order{}
		}
		c.JSON(http.StatusOK, sum)
	}
}

// @Summary     All orders, newest first
// @Tags        orders
// @Produce     json
// @Success     200 {array} order.Order
// @Router      /admin/orders [get]
func listOrdersHandler(svc orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context())
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if list == nil {
			list = []order.Order{}
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Param       id path string true "order id"
// @Success     200 {object} order.Order
// @Failure     404 {object} httpx.HTTPError
// @Router      /admin/orders/{id} [get]
func getOrderHandler(svc orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, order.ErrNotFound) {
			httpx.Fail(c, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary     Accept or reject a pending order
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       id   path string                    true "order id"
// @Param       body body order.UpdateStatusRequest true "new status and pickup time"
// @Success     200 {object} order.StatusResult
// @Failure     400 {object} httpx.HTTPError
// @Failure     404 {object} httpx.HTTPError
// @Failure     409 {object} httpx.HTTPError
// @Router      /admin/orders/{id}/status [put]
func updateStatusHandler(svc orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		res, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status, in.PickupTime)
		switch {
		case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrInvalidPickup):
			httpx.Fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrNotFound):
			httpx.Fail(c, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrFinal):
			httpx.Fail(c, http.StatusConflict, err.Error())
		case err != nil:
			httpx.Internal(c, err)
		default:
			c.JSON(http.StatusOK, res)
		}
	}
}

// @Summary     List products
// @Tags        products
// @Produce     json
// @Param       category query string false "category slug"
// @Param       q        query string false "search in name and description"
// @Param       limit    query int    false "page size" default(20)
// @Param       offset   query int    false "offset"    default(0)
// @Success     200 {object} product.ListResponse
// @Router      /admin/products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := product.Query{Category: c.Query("category"), Q: c.Query("q"), Limit: limit, Offset: offset}.Normalize()
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{Category: q.Category, Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

// writeFailure maps catalog write errors to responses.
func writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrInvalid), errors.Is(err, product.ErrUnknownCategory):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		httpx.Fail(c, http.StatusNotFound, "product not found")
	default:
		httpx.Internal(c, err)
	}
}

// @Summary     Create a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       body body product.CreateProductRequest true "new product"
// @Success     201 {object} product.Product
// @Failure     400 {object} httpx.HTTPError
// @Router      /admin/products [post]
func createProductHandler(repo product.Repository, relay notify.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		p, err := in.Build()
		if err != nil {
			writeFailure(c, err)
			return
		}
		err = notify.Guard(c.Request.Context(), relay, notify.OpCreate, productPath(p.ID), in, func(ctx context.Context) error {
			return repo.Create(ctx, p)
		})
		if err != nil {
			writeFailure(c, err)
			return
		}
		log.Printf("[admin] product created id=%s name=%q", p.ID, p.Name)
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary     Update a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Param       id   path string                       true "product id"
// @Param       body body product.UpdateProductRequest true "fields to change"
// @Success     200 {object} product.Product
// @Failure     400 {object} httpx.HTTPError
// @Failure     404 {object} httpx.HTTPError
// @Router      /admin/products/{id} [put]
func updateProductHandler(repo product.Repository, relay notify.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ctx := c.Request.Context()
		p, err := repo.GetByID(ctx, c.Param("id"))
		if err != nil {
			writeFailure(c, err)
			return
		}
		if _, err := in.Apply(p); err != nil {
			writeFailure(c, err)
			return
		}
		err = notify.Guard(ctx, relay, notify.OpUpdate, productPath(p.ID), in, func(ctx context.Context) error {
			return repo.Update(ctx, p)
		})
		if err != nil {
			writeFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary     Delete a product
// @Tags        products
// @Param       id path string true "product id"
// @Success     204
// @Failure     404 {object} httpx.HTTPError
// @Router      /admin/products/{id} [delete]
func deleteProductHandler(repo product.Repository, relay notify.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var ok bool
		err := notify.Guard(c.Request.Context(), relay, notify.OpDelete, productPath(id), nil, func(ctx context.Context) error {
			var derr error
			ok, derr = repo.Delete(ctx, id)
			return derr
		})
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if !ok {
			httpx.Fail(c, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("[admin] product deleted id=%s", id)
		c.Status(http.StatusNoContent)
	}
}

// @Summary     List users
// @Tags        users
// @Produce     json
// @Success     200 {array} user.User
// @Router      /admin/users [get]
func listUsersHandler(users accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.List(c.Request.Context())
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if list == nil {
			list = []user.User{}
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary     Delete a user; the primary administrator is protected
// @Tags        users
// @Param       id path string true "user id"
// @Success     204
// @Failure     403 {object} httpx.HTTPError
// @Failure     404 {object} httpx.HTTPError
// @Router      /admin/users/{id} [delete]
func deleteUserHandler(users accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := users.Delete(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, user.ErrProtected):
			httpx.Fail(c, http.StatusForbidden, err.Error())
		case errors.Is(err, user.ErrNotFound):
			httpx.Fail(c, http.StatusNotFound, "user not found")
		case err != nil:
			httpx.Internal(c, err)
		default:
			c.Status(http.StatusNoContent)
		}
	}
}

// @Summary     Most recent relayed storage failure
// @Tags        debug
// @Produce     json
// @Success     200 {object} notify.PermissionError
// @Success     204
// @Router      /admin/debug/last-error [get]
func lastErrorHandler(l *notify.Listener) gin.HandlerFunc {
	return func(c *gin.Context) {
		e := l.Last()
		if e == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.Header("X-Relay-Count", strconv.Itoa(l.Count()))
		c.JSON(http.StatusOK, e)
	}
}

type backoffice struct {
	sessions *session.Store
	admins   AdminChecker
	users    accounts
	orders   orders
	products product.Repository
	relay    notify.Relay
	listener *notify.Listener
}

func routes(r *gin.Engine, bo *backoffice) {
	r.POST("/admin/login", adminLoginHandler(bo.sessions, bo.users, bo.admins))
	r.POST("/admin/logout", adminLogoutHandler(bo.sessions))

	a := r.Group("/admin", RequireAdmin(bo.sessions, bo.admins))
	a.GET("/dashboard", dashboardHandler(bo.orders, bo.users, bo.products))
	a.GET("/orders", listOrdersHandler(bo.orders))
	a.GET("/orders/:id", getOrderHandler(bo.orders))
	a.PUT("/orders/:id/status", updateStatusHandler(bo.orders))
	a.GET("/products", listProductsHandler(bo.products))
	a.POST("/products", createProductHandler(bo.products, bo.relay))
	a.PUT("/products/:id", updateProductHandler(bo.products, bo.relay))
	a.DELETE("/products/:id", deleteProductHandler(bo.products, bo.relay))
	a.GET("/users", listUsersHandler(bo.users))
	a.DELETE("/users/:id", deleteUserHandler(bo.users))
	a.GET("/debug/last-error", lastErrorHandler(bo.listener))
}
