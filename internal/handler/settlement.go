package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/flexipay/installment-engine/internal/domain"
	"github.com/flexipay/installment-engine/internal/schedule"
	"github.com/flexipay/installment-engine/internal/service"
	"github.com/flexipay/installment-engine/internal/settlement"
	customError "github.com/flexipay/installment-engine/pkg/errors"
	"github.com/flexipay/installment-engine/pkg/response"
)

type SettlementHandler struct {
	service   *service.SettlementService
	validator *validator.Validate
}

func NewSettlementHandler(service *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateTransaction handles POST /transactions
func (h *SettlementHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	txn, err := h.service.CreateTransaction(r.Context(), &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, domain.TransactionResponse{Transaction: txn})
}

// GetSchedule handles GET /transactions/{transactionId}/schedule
func (h *SettlementHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	opts := sortOptionsFromQuery(r)
	payments, report, err := h.service.GetSchedule(r.Context(), transactionID, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"transaction_id": transactionID,
		"payments":       payments,
		"validation":     report,
	})
}

// GetProgress handles GET /transactions/{transactionId}/progress
func (h *SettlementHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	progress, err := h.service.GetProgress(r.Context(), transactionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, progress)
}

// GetNextPayment handles GET /transactions/{transactionId}/next-payment
func (h *SettlementHandler) GetNextPayment(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	info, err := h.service.GetNextPayment(r.Context(), transactionID, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, info)
}

// QuoteFull handles GET /transactions/{transactionId}/early-payment/quote
func (h *SettlementHandler) QuoteFull(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	option, err := h.service.QuoteFull(r.Context(), transactionID, time.Now())
	if err != nil {
		if errors.Is(err, customError.ErrNoScheduledInstallments) {
			response.Success(w, domain.QuoteResponse{TransactionID: transactionID})
			return
		}
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.QuoteResponse{TransactionID: transactionID, Option: option})
}

// QuotePartial handles POST /transactions/{transactionId}/early-payment/quote/partial
func (h *SettlementHandler) QuotePartial(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var request domain.PartialQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	ids := make([]uuid.UUID, 0, len(request.InstallmentIDs))
	for _, v := range request.InstallmentIDs {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "invalid installment id", err)
			return
		}
		ids = append(ids, id)
	}

	aggregate, options, err := h.service.QuotePartial(r.Context(), transactionID, ids, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.QuoteResponse{
		TransactionID: transactionID,
		Option:        aggregate,
		Installments:  options,
	})
}

// QuoteCustom handles POST /transactions/{transactionId}/early-payment/quote/custom
func (h *SettlementHandler) QuoteCustom(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var request domain.CustomAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	option, err := h.service.QuoteCustom(r.Context(), transactionID, request.Amount, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.QuoteResponse{TransactionID: transactionID, Option: option})
}

// Simulate handles POST /transactions/{transactionId}/early-payment/simulate
func (h *SettlementHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var request domain.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	results, err := h.service.Simulate(r.Context(), transactionID, request.Scenarios, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}

	options := make([]*domain.EarlyPaymentOption, 0, len(results))
	for i := range results {
		options = append(options, &results[i].Option)
	}

	response.Success(w, map[string]interface{}{
		"transaction_id": transactionID,
		"scenarios":      results,
		"recommended":    settlement.BestOption(options),
	})
}

// SubmitPayoff handles POST /transactions/{transactionId}/early-payment
func (h *SettlementHandler) SubmitPayoff(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var request domain.SubmitPayoffRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	record, err := h.service.SubmitPayoff(r.Context(), transactionID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, record)
}

// GetHistory handles GET /transactions/{transactionId}/early-payment/history
func (h *SettlementHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	records, summary, err := h.service.GetHistory(r.Context(), transactionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, domain.HistoryResponse{
		TransactionID: transactionID,
		Records:       records,
		Summary:       &summary,
	})
}

// CancelEarlyPayment handles POST /early-payments/{recordId}/cancel
func (h *SettlementHandler) CancelEarlyPayment(w http.ResponseWriter, r *http.Request) {
	recordID, err := uuid.Parse(mux.Vars(r)["recordId"])
	if err != nil {
		response.BadRequest(w, "invalid record id", err)
		return
	}

	record, err := h.service.CancelEarlyPayment(r.Context(), recordID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, record)
}

func sortOptionsFromQuery(r *http.Request) schedule.SortOptions {
	opts := schedule.SortOptions{
		SortBy: schedule.SortByHybrid,
		Order:  schedule.OrderAsc,
	}

	if v := r.URL.Query().Get("sortBy"); v != "" {
		opts.SortBy = v
	}
	if v := r.URL.Query().Get("order"); v == schedule.OrderDesc {
		opts.Order = schedule.OrderDesc
	}

	return opts
}

func (h *SettlementHandler) writeError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if errors.As(err, &bizErr) {
		switch bizErr.Code {
		case customError.ErrCodeTransactionNotFound, customError.ErrCodeRecordNotFound:
			response.NotFound(w, bizErr.Message)
		case customError.ErrCodeTransactionExists:
			response.Error(w, http.StatusConflict, bizErr.Message, bizErr.Err)
		case customError.ErrCodeInvalidSelection,
			customError.ErrCodeInvalidPaymentAmount,
			customError.ErrCodeInvalidPaymentPlan,
			customError.ErrCodeNoScheduledInstallments:
			response.UnprocessableEntity(w, bizErr.Message, bizErr.Err)
		case customError.ErrCodeProcessorError:
			response.BadGateway(w, bizErr.Message, bizErr.Err)
		default:
			response.InternalServerError(w, bizErr.Message, bizErr.Err)
		}
		return
	}

	response.InternalServerError(w, "internal error", err)
}
