package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tgreceiver/internal/models"
	"tgreceiver/internal/repositories"
)

type RatesHandler struct {
	Rates repositories.RateRepository
}

func NewRatesHandler(rates repositories.RateRepository) *RatesHandler {
	return &RatesHandler{Rates: rates}
}

// @Summary      List country rates
// @Tags         Rates
// @Produce      json
// @Success      200  {array}  models.CountryRate
// @Router       /rates [get]
func (h *RatesHandler) List(c *gin.Context) {
	rates, err := h.Rates.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rates)
}

// @Summary      Upsert a country rate
// @Tags         Rates
// @Accept       json
// @Produce      json
// @Param        rate  body      models.CountryRate  true  "Страна и сумма"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /rates [put]
func (h *RatesHandler) Upsert(c *gin.Context) {
	var rate models.CountryRate
	if err := c.ShouldBindJSON(&rate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if rate.Country == "" || rate.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country required, amount must be non-negative"})
		return
	}
	if err := h.Rates.Upsert(c.Request.Context(), rate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate saved"})
}
