package auth

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the paths the controller is mounted on
type AuthControllerRoutes struct {
	Signup string
	Login  string
	Me     string
	Users  string
}

// AuthController exposes signup, login and user endpoints
type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Auther
	Routes *AuthControllerRoutes
}

// AuthControllerOption configures an AuthController
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerDebug prints request payloads, passwords excluded
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Debug = debug
		return ac
	}
}

// WithControllerLogger sets the logger
func WithControllerLogger(l Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = resolveLogger(l)
		return ac
	}
}

// WithControllerRoutes overrides the mount paths
func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		if routes != nil {
			ac.Routes = routes
		}
		return ac
	}
}

// NewAuthController creates a controller. It panics without an Auther.
func NewAuthController(auther *Auther, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger(),
		Auther: auther,
		Routes: &AuthControllerRoutes{
			Signup: "/auth/signup",
			Login:  "/auth/login",
			Me:     "/users/me",
			Users:  "/users",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

// RouteRegistrar captures the router methods used by the controller
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterRoutes mounts the controller handlers
func (a *AuthController) RegisterRoutes(r RouteRegistrar) {
	r.Post(a.Routes.Signup, a.Signup).SetName("auth.signup")
	r.Post(a.Routes.Login, a.Login).SetName("auth.login")
	r.Get(a.Routes.Me, a.Me).SetName("users.me")
	// non strict routing also serves the trailing slash form
	r.Get(a.Routes.Users, a.AllUsers).SetName("users.list")
}

// Signup registers a new user
func (a *AuthController) Signup(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("signup parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if a.Debug {
		a.debug("AUTH SIGNUP", RegisterRequest{FullName: payload.FullName, Email: payload.Email})
	}

	user, err := a.Auther.Service().Signup(ctx.Context(), *payload)
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, user)
}

// Login verifies credentials and returns a token
func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Debug("login parse payload", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if a.Debug {
		a.debug("AUTH LOGIN", LoginRequest{Email: payload.Email})
	}

	res, _, err := a.Auther.Login(ctx.Context(), *payload)
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, res)
}

// Me returns the authenticated user
func (a *AuthController) Me(ctx router.Context) error {
	user, ok := UserFromContext(ctx.Context())
	if !ok {
		return ErrUnauthenticated
	}

	return ctx.JSON(router.StatusOK, user)
}

// AllUsers lists every user
func (a *AuthController) AllUsers(ctx router.Context) error {
	users, err := a.Auther.Service().AllUsers(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(router.StatusOK, users)
}

func (a *AuthController) debug(title string, payload any) {
	fmt.Printf("======= %s ======\n", title)
	fmt.Println(print.MaybePrettyJSON(payload))
	fmt.Println("=========================")
}
