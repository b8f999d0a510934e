// Package apitest runs an in-memory stand-in for the marketplace favorites API
// so clients can be exercised over real HTTP.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
	"github.com/njprem/umrah_marketplace_client/internal/util"
)

type Route string

const (
	RouteList   Route = "GET /api/favorites"
	RouteAdd    Route = "POST /api/favorites"
	RouteRemove Route = "DELETE /api/favorites/:tour_id"
	RouteSync   Route = "POST /api/favorites/sync"
	RouteFlags  Route = "GET /api/feature-flags"
)

const (
	contextUserKey = "apitest.user"
	tokenSecret    = "apitest-secret"
)

type Server struct {
	*httptest.Server
	Echo *echo.Echo

	issuer *util.TokenIssuer
	parser *util.TokenParser

	mu        sync.Mutex
	favorites map[uuid.UUID]*domain.FavoriteSet
	flags     []domain.FeatureFlag
	failures  map[Route]int
	rawBodies map[Route]string
	calls     map[Route]int
	syncs     [][]domain.TourID
}

// NewServer starts the fake API. It is closed automatically when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		issuer:    util.NewTokenIssuer(tokenSecret, time.Hour),
		parser:    util.NewTokenParser(tokenSecret),
		favorites: make(map[uuid.UUID]*domain.FavoriteSet),
		failures:  make(map[Route]int),
		rawBodies: make(map[Route]string),
		calls:     make(map[Route]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.count)

	e.GET("/api/feature-flags", s.listFlags)
	protected := e.Group("/api/favorites", s.requireAuth)
	protected.GET("", s.listFavorites)
	protected.POST("", s.addFavorite)
	protected.POST("/sync", s.syncFavorites)
	protected.DELETE("/:tour_id", s.removeFavorite)

	s.Echo = e
	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// Token mints a valid access token for userID.
func (s *Server) Token(userID uuid.UUID) string {
	token, _, err := s.issuer.Issue(userID, userID.String()+"@example.com")
	if err != nil {
		panic(err)
	}
	return token
}

// Identity returns a signed-in identity carrying a token the server accepts.
func (s *Server) Identity(userID uuid.UUID) *domain.Identity {
	identity, err := s.parser.Identity(s.Token(userID))
	if err != nil {
		panic(err)
	}
	return identity
}

// Fail makes route answer with status until Recover is called.
func (s *Server) Fail(route Route, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

func (s *Server) Recover(route Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// RespondRaw makes route answer 200 with body verbatim.
func (s *Server) RespondRaw(route Route, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBodies[route] = body
}

func (s *Server) Seed(userID uuid.UUID, ids ...domain.TourID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.userSetLocked(userID)
	for _, id := range ids {
		set.Add(id)
	}
}

func (s *Server) SetFlags(flags ...domain.FeatureFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append([]domain.FeatureFlag(nil), flags...)
}

// Favorites returns the stored ids for userID in insertion order.
func (s *Server) Favorites(userID uuid.UUID) []domain.TourID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userSetLocked(userID).IDs()
}

func (s *Server) Calls(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// SyncRequests returns the id lists received by the bulk sync endpoint.
func (s *Server) SyncRequests() [][]domain.TourID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]domain.TourID, len(s.syncs))
	copy(out, s.syncs)
	return out
}

func (s *Server) userSetLocked(userID uuid.UUID) *domain.FavoriteSet {
	set, ok := s.favorites[userID]
	if !ok {
		fresh := domain.NewFavoriteSet()
		set = &fresh
		s.favorites[userID] = set
	}
	return set
}

func (s *Server) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := Route(c.Request().Method + " " + c.Path())
		s.mu.Lock()
		s.calls[route]++
		status, failing := s.failures[route]
		raw, hasRaw := s.rawBodies[route]
		s.mu.Unlock()

		if failing {
			return c.JSON(status, errorBody("injected failure"))
		}
		if hasRaw {
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(raw))
		}
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			return c.JSON(http.StatusUnauthorized, errorBody("missing authorization header"))
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid authorization header"))
		}
		identity, err := s.parser.Identity(parts[1])
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorBody(err.Error()))
		}
		c.Set(contextUserKey, identity)
		return next(c)
	}
}

func currentUser(c echo.Context) uuid.UUID {
	identity, _ := c.Get(contextUserKey).(*domain.Identity)
	return identity.UserID
}

func (s *Server) listFavorites(c echo.Context) error {
	userID := currentUser(c)

	s.mu.Lock()
	ids := s.userSetLocked(userID).IDs()
	s.mu.Unlock()

	items := make([]echo.Map, 0, len(ids))
	for _, id := range ids {
		items = append(items, echo.Map{"tour_id": id})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"pagination": echo.Map{
			"limit":  len(items),
			"offset": 0,
			"total":  len(items),
			"count":  len(items),
		},
	})
}

func (s *Server) addFavorite(c echo.Context) error {
	var req struct {
		TourID domain.TourID `json:"tour_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if !req.TourID.Valid() {
		return c.JSON(http.StatusBadRequest, errorBody("tour_id must be a positive integer"))
	}

	s.mu.Lock()
	added := s.userSetLocked(currentUser(c)).Add(req.TourID)
	s.mu.Unlock()

	if !added {
		return c.JSON(http.StatusConflict, errorBody("tour already saved"))
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"favorite": echo.Map{"tour_id": req.TourID},
		"message":  "Tour saved to Favorites",
	})
}

func (s *Server) removeFavorite(c echo.Context) error {
	raw, err := strconv.ParseInt(strings.TrimSpace(c.Param("tour_id")), 10, 64)
	if err != nil || raw <= 0 {
		return c.JSON(http.StatusBadRequest, errorBody("tour_id must be a positive integer"))
	}

	s.mu.Lock()
	removed := s.userSetLocked(currentUser(c)).Remove(domain.TourID(raw))
	s.mu.Unlock()

	if !removed {
		return c.JSON(http.StatusNotFound, errorBody("tour is not in your favorites"))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Tour removed from Favorites"})
}

func (s *Server) syncFavorites(c echo.Context) error {
	var req struct {
		TourIDs []domain.TourID `json:"tour_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	for _, id := range req.TourIDs {
		if !id.Valid() {
			return c.JSON(http.StatusBadRequest, errorBody("tour_ids must be positive integers"))
		}
	}

	s.mu.Lock()
	set := s.userSetLocked(currentUser(c))
	for _, id := range req.TourIDs {
		set.Add(id)
	}
	s.syncs = append(s.syncs, append([]domain.TourID(nil), req.TourIDs...))
	total := set.Len()
	s.mu.Unlock()

	return c.JSON(http.StatusOK, echo.Map{
		"synced": len(req.TourIDs),
		"total":  total,
	})
}

func (s *Server) listFlags(c echo.Context) error {
	s.mu.Lock()
	flags := append([]domain.FeatureFlag(nil), s.flags...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, echo.Map{"flags": flags})
}

func errorBody(message string) echo.Map {
	return echo.Map{"error": message}
}
