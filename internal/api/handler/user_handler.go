package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/apiusers/user-service/internal/core/domain"
	"github.com/apiusers/user-service/internal/core/ports"
)

const (
	// HeaderIdempotencyKey makes POST /users safe to retry.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed marks a create answered from an earlier request.
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

// UserHandler handles HTTP requests for the users resource. Errors are
// returned to Echo and rendered by the central error handler.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /users.
//
// @Summary      List users
// @Description  Returns every user, active and inactive, ordered by id.
// @Tags         users
// @Produce      json
// @Success      200  {array}   userView
// @Failure      500  {object}  messageResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserViews(users))
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userView
// @Failure      404  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	u, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(u))
}

// Create handles POST /users.
//
// @Summary      Create a user
// @Description  The email is trimmed and lower-cased before storage. A replayed Idempotency-Key returns the user created first.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createUserRequest  true   "User details"
// @Success      201              {object}  userView
// @Header       201              {string}  Location  "/users/{id}"
// @Header       201              {string}  Idempotent-Replayed  "true when replayed"
// @Failure      400              {object}  validationErrorResponse
// @Failure      409              {object}  messageResponse
// @Failure      500              {object}  messageResponse
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	key := c.Request().Header.Get(HeaderIdempotencyKey)
	res, err := h.service.Create(c.Request().Context(), toCreateInput(req, key))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, userLocation(res.User.ID))
	if res.Replayed {
		c.Response().Header().Set(HeaderIdempotentReplayed, "true")
	}
	return c.JSON(http.StatusCreated, toUserView(res.User))
}

// Update handles PUT /users/:id.
//
// @Summary      Update a user
// @Description  Replaces name, email and active. An omitted active means true. The password is left unchanged.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "User details"
// @Success      200   {object}  userView
// @Failure      400   {object}  validationErrorResponse
// @Failure      404   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	u, err := h.service.Update(c.Request().Context(), id, toUpdateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(u))
}

// Delete handles DELETE /users/:id. The user is deactivated, not removed.
//
// @Summary      Deactivate a user
// @Tags         users
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      404  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// userID parses the :id path segment. Anything that cannot name a stored
// user is reported as not found.
func userID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}
