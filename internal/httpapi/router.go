// Package httpapi exposes the planner over a JSON REST API for the
// household dashboard.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pantry-planner/internal/assistant"
	"pantry-planner/internal/catalog"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/menu"
	"pantry-planner/internal/planner"
)

// Server holds the API dependencies. Assistant and Importer are optional;
// their routes return 503 when the LLM is not configured.
type Server struct {
	planner   *planner.Planner
	catalog   *catalog.Repository
	assistant *assistant.Assistant
	importer  *importer.Importer
}

// NewServer creates the API server over the given services.
func NewServer(p *planner.Planner, catalogRepo *catalog.Repository, a *assistant.Assistant, imp *importer.Importer) *Server {
	return &Server{planner: p, catalog: catalogRepo, assistant: a, importer: imp}
}

// Router builds the gin engine with CORS and JWT auth applied.
func (s *Server) Router(jwtSecret string, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(CORSMiddleware(allowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", AuthMiddleware(jwtSecret))
	{
		api.GET("/board", s.getBoard)
		api.GET("/shopping-list", s.getShoppingList)
		api.GET("/restock", s.getRestock)
		api.GET("/low-stock", s.getLowStock)

		api.GET("/dishes", s.listDishes)
		api.GET("/ingredients", s.listIngredients)
		api.PUT("/ingredients", s.saveIngredient)

		api.POST("/entries", s.addEntry)
		api.PUT("/entries/:id", s.updateEntry)
		api.DELETE("/entries/:id", s.deleteEntry)

		api.POST("/import", s.importRecipe)
		api.POST("/assistant", s.askAssistant)
	}

	return r
}

// dateParam parses the ?date= query, defaulting to today.
func dateParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	date, err := time.Parse(menu.DateFormat, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

func (s *Server) getBoard(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	board, err := s.planner.DayBoard(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, board)
}

func (s *Server) getShoppingList(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	view, err := s.planner.ShoppingList(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) getRestock(c *gin.Context) {
	raw := c.Query("month")
	if raw == "" {
		raw = time.Now().Format("2006-01")
	}
	ref, err := time.Parse("2006-01", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, expected YYYY-MM"})
		return
	}
	plan, err := s.planner.MonthlyRestock(c.Request.Context(), ref.Year(), ref.Month())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) getLowStock(c *gin.Context) {
	ingredients, err := s.planner.LowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (s *Server) listDishes(c *gin.Context) {
	dishes, err := s.catalog.ListDishes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dishes": dishes})
}

func (s *Server) listIngredients(c *gin.Context) {
	ingredients, err := s.catalog.ListIngredients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (s *Server) saveIngredient(c *gin.Context) {
	var ing catalog.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ing.ID == "" || ing.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and name are required"})
		return
	}
	if err := s.catalog.SaveIngredient(c.Request.Context(), ing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ing)
}

type addEntryRequest struct {
	DishID   string  `json:"dish_id" binding:"required"`
	Date     string  `json:"date" binding:"required"`
	Servings float64 `json:"servings"`
	Note     string  `json:"note"`
}

func (s *Server) addEntry(c *gin.Context) {
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(menu.DateFormat, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	entry, consumption, err := s.planner.ScheduleDish(c.Request.Context(), req.DishID, date, req.Servings, req.Note)
	if err != nil {
		if entry == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Entry was created but stock could not be fully consumed.
		c.JSON(http.StatusOK, gin.H{"entry": entry, "consumption": consumption, "warning": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "consumption": consumption})
}

type updateEntryRequest struct {
	Servings float64 `json:"servings"`
	Note     string  `json:"note"`
}

func (s *Server) updateEntry(c *gin.Context) {
	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.planner.UpdateEntry(c.Request.Context(), c.Param("id"), req.Servings, req.Note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteEntry(c *gin.Context) {
	if err := s.planner.RemoveEntry(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type importRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) importRecipe(c *gin.Context) {
	if s.importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recipe import is not configured"})
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dish, err := s.importer.ImportURL(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dish)
}

type assistantRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) askAssistant(c *gin.Context) {
	if s.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant is not configured"})
		return
	}
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.assistant.HandleMessage(c.Request.Context(), req.Message, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
