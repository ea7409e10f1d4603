package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/xpresspost/rateshop/modules/rating/domain"
	"github.com/xpresspost/rateshop/modules/rating/services"
)

const (
	errMsgInvalidJSON         = "invalid JSON"
	errMsgInternalServerError = "Internal Server Error"
)

type QuoteController struct {
	quoteService *services.QuoteService
	basePath     string
	log          *logrus.Logger
}

func NewQuoteController(quoteService *services.QuoteService, basePath string, log *logrus.Logger) *QuoteController {
	return &QuoteController{
		quoteService: quoteService,
		basePath:     basePath,
		log:          log,
	}
}

func (c *QuoteController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/quotes", c.NewQuote).Methods(http.MethodPost)
	router.HandleFunc("/increases", c.Increase).Methods(http.MethodPost)
}

func (c *QuoteController) Key() string {
	return c.basePath
}

type newQuoteDTO struct {
	CustName  string  `json:"custName"`
	CustNo    string  `json:"custno"`
	QuoteNum  string  `json:"quoteNum"`
	QuoteDate string  `json:"quoteDate"`
	Office    string  `json:"office"`
	Services  []int   `json:"services"`
	Margin    float64 `json:"margin"`
	Pickup    float64 `json:"pickup"`
}

type increaseDTO struct {
	Service     int     `json:"service"`
	Percentage  float64 `json:"percentage"`
	Margin      float64 `json:"margin"`
	Pickup      float64 `json:"pickup"`
	QuoteID     string  `json:"quoteId"`
	Passthrough bool    `json:"passthrough"`
}

type increaseRunDTO struct {
	CustName  string        `json:"custName"`
	CustNo    string        `json:"custno"`
	QuoteNum  string        `json:"quoteNum"`
	QuoteDate string        `json:"quoteDate"`
	Increases []increaseDTO `json:"increases"`
	Save      bool          `json:"save"`
}

func (c *QuoteController) NewQuote(w http.ResponseWriter, r *http.Request) {
	var dto newQuoteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, errMsgInvalidJSON, http.StatusBadRequest)
		return
	}

	resp, err := c.quoteService.NewQuote(r.Context(), services.NewQuoteRequest{
		Params: services.QuoteParams{
			CustName:  dto.CustName,
			CustNo:    dto.CustNo,
			QuoteNum:  dto.QuoteNum,
			QuoteDate: dto.QuoteDate,
		},
		Services: dto.Services,
		Office:   dto.Office,
		Margin:   dto.Margin,
		Pickup:   dto.Pickup,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, resp)
}

func (c *QuoteController) Increase(w http.ResponseWriter, r *http.Request) {
	var dto increaseRunDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, errMsgInvalidJSON, http.StatusBadRequest)
		return
	}

	increases := make([]domain.IncreaseRequest, 0, len(dto.Increases))
	for _, inc := range dto.Increases {
		increases = append(increases, domain.IncreaseRequest{
			Service:     inc.Service,
			Percentage:  inc.Percentage,
			Margin:      inc.Margin,
			Pickup:      inc.Pickup,
			QuoteID:     inc.QuoteID,
			Passthrough: inc.Passthrough,
		})
	}

	resp, err := c.quoteService.Increase(r.Context(), services.IncreaseRunRequest{
		Params: services.QuoteParams{
			CustName:  dto.CustName,
			CustNo:    dto.CustNo,
			QuoteNum:  dto.QuoteNum,
			QuoteDate: dto.QuoteDate,
		},
		Increases: increases,
		Save:      dto.Save,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, resp)
}

func (c *QuoteController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrUnknownService) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	http.Error(w, errMsgInternalServerError, http.StatusInternalServerError)
}

func (c *QuoteController) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.log.WithError(err).Error("failed to encode response")
	}
}
