package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/konki-burger/internal/cart"
	"github.com/MikeMC777/konki-burger/internal/httpx"
	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/order"
	"github.com/MikeMC777/konki-burger/internal/product"
	"github.com/MikeMC777/konki-burger/internal/session"
	"github.com/MikeMC777/konki-burger/internal/user"
)

// AddItemRequest payload to add a product to the cart.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required" example:"burgers-konki-clasica"`
	// defaults to 1
	Quantity int `json:"quantity" binding:"gte=0" example:"1"`
}

// QuantityRequest payload to set the quantity of a cart line.
// swagger:model QuantityRequest
type QuantityRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

// LoginRequest payload of sign-in.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"ana@example.com"`
	Password string `json:"password" binding:"required"       example:"supersecreta"`
}

type accounts interface {
	Register(ctx context.Context, in user.RegisterRequest) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
}

type orders interface {
	Submit(ctx context.Context, owner string, customer order.Customer, items []cart.Item) (*order.Order, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
}

// shopper finds the cart of the caller: the cookie cart of a guest or the
// session cart of a logged-in user.
type shopper struct {
	sessions *session.Store
	registry *cart.Registry
	catalog  cart.Catalog
}

func (s *shopper) userCart(c *gin.Context) (*cart.Session, bool, error) {
	uid := s.sessions.UserID(c)
	if uid == "" {
		return nil, false, nil
	}
	sess, err := s.registry.Open(c.Request.Context(), uid)
	return sess, true, err
}

func (s *shopper) guestView(c *gin.Context) (cart.View, error) {
	ctx := c.Request.Context()
	q, err := s.sessions.Guest(c).Load(ctx)
	if err != nil {
		return cart.View{}, err
	}
	items, err := cart.Resolve(ctx, s.catalog, q)
	if err != nil {
		return cart.View{}, err
	}
	return cart.New(items...).View(), nil
}

// view returns the current cart of the caller.
func (s *shopper) view(c *gin.Context) (cart.View, error) {
	sess, ok, err := s.userCart(c)
	if err != nil {
		return cart.View{}, err
	}
	if ok {
		return sess.Snapshot(c.Request.Context())
	}
	return s.guestView(c)
}

// @Summary     List menu categories
// @Tags        catalog
// @Produce     json
// @Success     200 {array} product.Category
// @Router      /categories [get]
func listCategoriesHandler(repo product.CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := repo.List(c.Request.Context())
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, cats)
	}
}

// @Summary     List products
// @Tags        catalog
// @Produce     json
// @Param       category query string false "category slug"
// @Param       q        query string false "search in name and description"
// @Param       limit    query int    false "page size" default(20)
// @Param       offset   query int    false "offset"    default(0)
// @Success     200 {object} product.ListResponse
// @Router      /products [get]
func listProductsHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := product.Query{
			Category: c.Query("category"),
			Q:        c.Query("q"),
			Limit:    limit,
			Offset:   offset,
		}.Normalize()

		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		c.JSON(http.StatusOK, product.ListResponse{
			Category: q.Category,
			Q:        q.Q,
			Limit:    q.Limit,
			Offset:   q.Offset,
			Items:    items,
		})
	}
}

// @Summary     Get a product
// @Tags        catalog
// @Produce     json
// @Param       id path string true "product id"
// @Success     200 {object} product.Product
// @Failure     404 {object} httpx.HTTPError
// @Router      /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, product.ErrNotFound) {
			httpx.Fail(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary     Current cart
// @Tags        cart
// @Produce     json
// @Success     200 {object} cart.View
// @Router      /cart [get]
func getCartHandler(s *shopper) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.view(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// @Summary     Add a product to the cart
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       body body AddItemRequest true "product and quantity"
// @Success     200 {object} cart.View
// @Failure     404 {object} httpx.HTTPError
// @Router      /cart/items [post]
func addItemHandler(s *shopper, repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in AddItemRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		ctx := c.Request.Context()
		p, err := repo.GetByID(ctx, in.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			httpx.Fail(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}

		sess, ok, err := s.userCart(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if ok {
			sess.Add(*p, in.Quantity)
			c.JSON(http.StatusOK, sess.Cart().View())
			return
		}
		if _, err := cart.AddGuest(ctx, s.sessions.Guest(c), p.ID, in.Quantity); err != nil {
			httpx.Internal(c, err)
			return
		}
		respondGuest(c, s)
	}
}

// @Summary     Set the quantity of a line; zero or less removes it
// @Tags        cart
// @Accept      json
// @Produce     json
// @Param       product_id path string          true "product id"
// @Param       body       body QuantityRequest true "new quantity"
// @Success     200 {object} cart.View
// @Router      /cart/items/{product_id} [put]
func updateItemHandler(s *shopper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in QuantityRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		id := c.Param("product_id")
		sess, ok, err := s.userCart(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if ok {
			sess.Update(id, in.Quantity)
			c.JSON(http.StatusOK, sess.Cart().View())
			return
		}
		if _, err := cart.UpdateGuest(c.Request.Context(), s.sessions.Guest(c), id, in.Quantity); err != nil {
			httpx.Internal(c, err)
			return
		}
		respondGuest(c, s)
	}
}

// @Summary     Remove a line
// @Tags        cart
// @Produce     json
// @Param       product_id path string true "product id"
// @Success     200 {object} cart.View
// @Router      /cart/items/{product_id} [delete]
func removeItemHandler(s *shopper) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("product_id")
		sess, ok, err := s.userCart(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if ok {
			sess.Remove(id)
			c.JSON(http.StatusOK, sess.Cart().View())
			return
		}
		if err := cart.RemoveGuest(c.Request.Context(), s.sessions.Guest(c), id); err != nil {
			httpx.Internal(c, err)
			return
		}
		respondGuest(c, s)
	}
}

// @Summary     Empty the cart
// @Tags        cart
// @Produce     json
// @Success     200 {object} cart.View
// @Router      /cart [delete]
func clearCartHandler(s *shopper) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok, err := s.userCart(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if ok {
			sess.Clear()
			c.JSON(http.StatusOK, sess.Cart().View())
			return
		}
		if err := s.sessions.Guest(c).Clear(c.Request.Context()); err != nil {
			httpx.Internal(c, err)
			return
		}
		respondGuest(c, s)
	}
}

func respondGuest(c *gin.Context, s *shopper) {
	v, err := s.guestView(c)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary     Place an order with the current cart
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       body body order.CheckoutRequest true "customer data"
// @Success     201 {object} order.Order
// @Failure     400 {object} httpx.HTTPError
// @Router      /checkout [post]
func checkoutHandler(s *shopper, svc orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CheckoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ctx := c.Request.Context()
		sess, ok, err := s.userCart(c)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		var (
			items []cart.Item
			owner string
		)
		if ok {
			v, err := sess.Snapshot(ctx)
			if err != nil {
				httpx.Internal(c, err)
				return
			}
			items, owner = v.Items, sess.UserID()
		} else {
			v, err := s.guestView(c)
			if err != nil {
				httpx.Internal(c, err)
				return
			}
			items = v.Items
		}

		o, err := svc.Submit(ctx, owner, in.Customer, items)
		switch {
		case errors.Is(err, order.ErrEmptyCart), errors.Is(err, order.ErrInvalidCustomer):
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			httpx.Internal(c, err)
			return
		}

		if ok {
			sess.Clear()
		} else if err := s.sessions.Guest(c).Clear(ctx); err != nil {
			log.Printf("[checkout] order=%s: clear guest cart: %v", o.ID, err)
		}
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary     Create an account and log in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body user.RegisterRequest true "profile and password"
// @Success     201 {object} user.User
// @Failure     409 {object} httpx.HTTPError
// @Router      /auth/register [post]
func registerHandler(s *shopper, svc accounts, merger *cart.Merger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RegisterRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		u, err := svc.Register(c.Request.Context(), in)
		switch {
		case errors.Is(err, user.ErrAlreadyExist):
			httpx.Fail(c, http.StatusConflict, "email already registered")
			return
		case errors.Is(err, user.ErrWeakPassword):
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			httpx.Internal(c, err)
			return
		}
		if !signIn(c, s, merger, u.ID) {
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// @Summary     Log in and merge the guest cart
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body LoginRequest true "credentials"
// @Success     200 {object} user.User
// @Failure     401 {object} httpx.HTTPError
// @Router      /auth/login [post]
func loginHandler(s *shopper, svc accounts, merger *cart.Merger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		u, err := svc.Authenticate(c.Request.Context(), in.Email, in.Password)
		if errors.Is(err, user.ErrInvalidCredential) {
			httpx.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if !signIn(c, s, merger, u.ID) {
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// signIn binds the cookie to uid and moves the guest cart into the user's
// cart. A failed merge keeps the guest cart and does not block the login.
func signIn(c *gin.Context, s *shopper, merger *cart.Merger, uid string) bool {
	if err := s.sessions.Login(c, uid); err != nil {
		httpx.Internal(c, err)
		return false
	}
	if err := merger.MergeGuest(c.Request.Context(), uid, s.sessions.Guest(c)); err != nil {
		log.Printf("[auth] uid=%s: guest cart kept: %v", uid, err)
	}
	return true
}

// @Summary     Log out
// @Tags        auth
// @Success     204
// @Router      /auth/logout [post]
func logoutHandler(s *shopper) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := s.sessions.UserID(c)
		if err := s.sessions.Logout(c); err != nil {
			httpx.Internal(c, err)
			return
		}
		if uid != "" {
			s.registry.Drop(uid)
		}
		c.Status(http.StatusNoContent)
	}
}

// requireUser aborts with 401 when the caller is a guest.
func requireUser(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := sessions.UserID(c)
		if uid == "" {
			httpx.Fail(c, http.StatusUnauthorized, "login required")
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

// @Summary     Current user
// @Tags        auth
// @Produce     json
// @Success     200 {object} user.User
// @Failure     401 {object} httpx.HTTPError
// @Router      /auth/me [get]
func meHandler(svc accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Get(c.Request.Context(), c.GetString("uid"))
		if errors.Is(err, user.ErrNotFound) {
			httpx.Fail(c, http.StatusUnauthorized, "login required")
			return
		}
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary     Orders of the current user
// @Tags        orders
// @Produce     json
// @Success     200 {array} order.Order
// @Router      /me/orders [get]
func myOrdersHandler(svc orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.ListByUser(c.Request.Context(), c.GetString("uid"))
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

// @Summary     Most recent storage failure relayed by this process
// @Tags        debug
// @Produce     json
// @Success     200 {object} notify.PermissionError
// @Success     204
// @Router      /debug/last-error [get]
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

type storefront struct {
	products   product.Repository
	categories product.CategoryRepository
	shopper    *shopper
	merger     *cart.Merger
	users      accounts
	orders     orders
	listener   *notify.Listener
}

func routes(r *gin.Engine, sf *storefront) {
	r.GET("/categories", listCategoriesHandler(sf.categories))
	r.GET("/products", listProductsHandler(sf.products))
	r.GET("/products/:id", getProductHandler(sf.products))

	r.GET("/cart", getCartHandler(sf.shopper))
	r.DELETE("/cart", clearCartHandler(sf.shopper))
	r.POST("/cart/items", addItemHandler(sf.shopper, sf.products))
	r.PUT("/cart/items/:product_id", updateItemHandler(sf.shopper))
	r.DELETE("/cart/items/:product_id", removeItemHandler(sf.shopper))
	r.POST("/checkout", checkoutHandler(sf.shopper, sf.orders))

	r.POST("/auth/register", registerHandler(sf.shopper, sf.users, sf.merger))
	r.POST("/auth/login", loginHandler(sf.shopper, sf.users, sf.merger))
	r.POST("/auth/logout", logoutHandler(sf.shopper))

	me := r.Group("/", requireUser(sf.shopper.sessions))
	me.GET("/auth/me", meHandler(sf.users))
	me.GET("/me/orders", myOrdersHandler(sf.orders))

	r.GET("/debug/last-error", lastErrorHandler(sf.listener))
}
