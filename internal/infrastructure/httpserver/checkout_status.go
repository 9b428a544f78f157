package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
)

// CheckoutStatusFunc resolves the current saga state for a checkout ID.
type CheckoutStatusFunc func(ctx context.Context, checkoutID string) (*checkout.State, error)

// CheckoutStatus registers the read-only checkout status endpoint. The state
// is rebuilt from the event stream; a stalled saga is visible here as a
// non-terminal status that stops moving.
func (s *Server) CheckoutStatus(path string, query CheckoutStatusFunc) {
	s.echo.GET(path, func(c echo.Context) error {
		checkoutID := c.Param("id")
		if checkoutID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "checkout id is required",
			})
		}

		state, err := query(c.Request().Context(), checkoutID)
		if err != nil {
			if errors.Is(err, appcore.ErrAggregateNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{
					"error": "checkout not found",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to load checkout",
			})
		}

		return c.JSON(http.StatusOK, state)
	})
}
