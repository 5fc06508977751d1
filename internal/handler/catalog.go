package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/concert-booking/internal/model"
    "github.com/iliyamo/concert-booking/internal/repository"
)

// ConcertReader is the read side of the concert catalog.
type ConcertReader interface {
    GetByID(ctx context.Context, id uint64) (*model.Concert, error)
    ListAll(ctx context.Context) ([]model.Concert, error)
    ListSummaries(ctx context.Context) ([]model.ConcertSummary, error)
}

// PerformerReader is the read side of the performer catalog.
type PerformerReader interface {
    GetByID(ctx context.Context, id uint64) (*model.Performer, error)
    ListAll(ctx context.Context) ([]model.Performer, error)
}

// CatalogHandler serves the public concert and performer endpoints.  No
// authentication is required.
type CatalogHandler struct {
    Concerts   ConcertReader
    Performers PerformerReader
}

func NewCatalogHandler(concerts ConcertReader, performers PerformerReader) *CatalogHandler {
    if concerts == nil || performers == nil {
        panic("nil repository passed to NewCatalogHandler")
    }
    return &CatalogHandler{Concerts: concerts, Performers: performers}
}

// GetConcert handles GET /concerts/:id.
func (h *CatalogHandler) GetConcert(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid concert id")
    }
    concert, err := h.Concerts.GetByID(c.Request().Context(), id)
    if errors.Is(err, repository.ErrConcertNotFound) {
        return errorJSON(c, http.StatusNotFound, "concert not found")
    }
    if err != nil {
        return internalError(c, err)
    }
    return c.JSON(http.StatusOK, toConcertView(*concert))
}

// ListConcerts handles GET /concerts.
func (h *CatalogHandler) ListConcerts(c echo.Context) error {
    concerts, err := h.Concerts.ListAll(c.Request().Context())
    if err != nil {
        return internalError(c, err)
    }
    out := make([]concertView, 0, len(concerts))
    for _, concert := range concerts {
        out = append(out, toConcertView(concert))
    }
    return c.JSON(http.StatusOK, out)
}

// ListConcertSummaries handles GET /concerts/summaries.
func (h *CatalogHandler) ListConcertSummaries(c echo.Context) error {
    list, err := h.Concerts.ListSummaries(c.Request().Context())
    if err != nil {
        return internalError(c, err)
    }
    out := make([]concertSummaryView, 0, len(list))
    for _, s := range list {
        out = append(out, concertSummaryView{ID: s.ID, Title: s.Title, ImageName: s.ImageName})
    }
    return c.JSON(http.StatusOK, out)
}

// GetPerformer handles GET /performers/:id.
func (h *CatalogHandler) GetPerformer(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return errorJSON(c, http.StatusBadRequest, "invalid performer id")
    }
    p, err := h.Performers.GetByID(c.Request().Context(), id)
    if errors.Is(err, repository.ErrPerformerNotFound) {
        return errorJSON(c, http.StatusNotFound, "performer not found")
    }
    if err != nil {
        return internalError(c, err)
    }
    return c.JSON(http.StatusOK, toPerformerView(*p))
}

// ListPerformers handles GET /performers.
func (h *CatalogHandler) ListPerformers(c echo.Context) error {
    list, err := h.Performers.ListAll(c.Request().Context())
    if err != nil {
        return internalError(c, err)
    }
    out := make([]performerView, 0, len(list))
    for _, p := range list {
        out = append(out, toPerformerView(p))
    }
    return c.JSON(http.StatusOK, out)
}
