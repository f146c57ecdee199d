package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ForexSignal/internal/model"
	"ForexSignal/internal/recorder"
)

// signalRequest mirrors model.Request with a pointer threshold so a missing
// field can be told apart from zero.
type signalRequest struct {
	Symbol    string   `json:"symbol"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Threshold *float64 `json:"threshold"`
}

func (r signalRequest) toModel() (model.Request, error) {
	if r.Threshold == nil {
		return model.Request{}, errors.New("threshold is required")
	}
	return model.Request{
		Symbol:    r.Symbol,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Threshold: *r.Threshold,
	}, nil
}

type signalResponse struct {
	*model.Result
	RequestID string `json:"request_id"`
}

type errorResponse struct {
	Error     string     `json:"error"`
	Kind      model.Kind `json:"kind"`
	RequestID string     `json:"request_id"`
}

// StatusFor maps an error category to its HTTP status.
func StatusFor(kind model.Kind) int {
	switch kind {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindDataNotFound, model.KindModelNotFound:
		return http.StatusNotFound
	case model.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case model.KindPrediction:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := model.KindOf(err)
	msg := err.Error()
	if kind == model.KindInternal {
		msg = "internal error"
	}
	c.JSON(StatusFor(kind), errorResponse{Error: msg, Kind: kind, RequestID: c.GetString("request_id")})
}

func writeInvalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:     msg,
		Kind:      model.KindInvalidInput,
		RequestID: c.GetString("request_id"),
	})
}

func bindRequest(c *gin.Context) (model.Request, bool) {
	var body signalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeInvalid(c, "invalid request body: "+err.Error())
		return model.Request{}, false
	}
	req, err := body.toModel()
	if err != nil {
		writeInvalid(c, err.Error())
		return model.Request{}, false
	}
	return req, true
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Forex Trading Signals API"})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	res, err := s.svc.Generate(c.Request.Context(), req, recorder.SourceAPI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, signalResponse{Result: res, RequestID: c.GetString("request_id")})
}

func (s *Server) handleBacktest(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	rep, err := s.svc.Backtest(c.Request.Context(), req, recorder.SourceAPI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeInvalid(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.svc.History(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []recorder.SignalRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"signals": records})
}
