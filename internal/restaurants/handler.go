package restaurants

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bibhub/internal/logging"
	"bibhub/internal/query"
	"bibhub/pkg/models"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/restaurants", h.search)
	rg.GET("/restaurants", h.list) // ?distinction=&cooking=&query=&sorting=&lat=&long=
	rg.GET("/restaurants/:id", h.getByID)
	rg.GET("/cuisines", h.cuisines)
}

func (h *Handler) search(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error(), "restaurants": []models.Restaurant{}})
		return
	}
	h.respond(c, body.request())
}

func (h *Handler) list(c *gin.Context) {
	req := query.Request{
		Distinction: c.Query("distinction"),
		CookingType: c.Query("cooking"),
		Query:       c.Query("query"),
		Sort:        strings.ToUpper(c.Query("sorting")),
	}

	lat, hasLat := c.GetQuery("lat")
	long, hasLong := c.GetQuery("long")
	if hasLat || hasLong {
		loc, err := parseLatLong(lat, long)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "restaurants": []models.Restaurant{}})
			return
		}
		req.UserLocation = loc
	}
	h.respond(c, req)
}

func (h *Handler) respond(c *gin.Context, req query.Request) {
	found, err := h.Service.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, query.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "restaurants": []models.Restaurant{}})
			return
		}
		logging.FromContext(c.Request.Context()).Error().Err(err).Msg("search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed", "restaurants": []models.Restaurant{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": "", "restaurants": found})
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	r, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) cuisines(c *gin.Context) {
	distinction := c.Query("distinction")
	if distinction != "" && !validDistinction(distinction) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown distinction " + strconv.Quote(distinction)})
		return
	}
	types, err := h.Service.Cuisines(c.Request.Context(), distinction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cuisines failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cuisines": types})
}

func parseLatLong(lat, long string) (*query.LatLong, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return nil, errors.New("invalid lat")
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(long), 64)
	if err != nil {
		return nil, errors.New("invalid long")
	}
	return &query.LatLong{Lat: la, Long: lo}, nil
}

func validDistinction(d string) bool {
	for _, v := range models.Distinctions {
		if v == d {
			return true
		}
	}
	return false
}
