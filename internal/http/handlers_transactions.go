package http

import (
	"errors"
	"net/http"
	"strings"

	"pennywise/internal/api"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/services"
)

const (
	msgNotFound        = "Transaction not found"
	msgInvalidBody     = "Invalid request body"
	msgSaveFailed      = "Failed to save transaction"
	msgDeleteFailed    = "Failed to delete transaction"
	msgDeleteDeclined  = "Delete cancelled"
	msgUnknownCategory = "Unknown category"
	msgUnknownType     = "Unknown transaction type"
)

var msgAmountTooLarge = "amount must be at most " + core.MaxAmount.String()

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, s.svc.Ledger().List(), "")
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.svc.Ledger().Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	writeData(w, r, http.StatusOK, &tx, "")
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readInput(w, r)
	if !ok {
		return
	}
	tx, err := s.svc.Add(r.Context(), in)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, &tx, services.MsgAdded)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := s.readInput(w, r)
	if !ok {
		return
	}
	tx, found, err := s.svc.Edit(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, msgNotFound)
		return
	}
	writeData(w, r, http.StatusOK, &tx, services.MsgUpdated)
}

// handleDeleteTransaction removes a record. Deleting an unknown id succeeds
// without a message, like the ledger's silent no-op.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Delete failed",
			log.FieldTransactionID, r.PathValue("id"),
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, msgDeleteFailed)
		return
	}
	switch outcome {
	case services.Deleted:
		writeEnvelope(w, r, http.StatusOK, successMessage(services.MsgDeleted))
	case services.Declined:
		writeError(w, r, http.StatusConflict, msgDeleteDeclined)
	default:
		writeEnvelope(w, r, http.StatusOK, successMessage(""))
	}
}

func (s *Server) handleTransactionsByCategory(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("category")
	c := core.ParseCategory(raw)
	if c == core.Other && !strings.EqualFold(strings.TrimSpace(raw), string(core.Other)) {
		writeError(w, r, http.StatusBadRequest, msgUnknownCategory)
		return
	}
	writeData(w, r, http.StatusOK, s.svc.Ledger().FilterByCategory(c), "")
}

func (s *Server) handleTransactionsByType(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("type")
	if strings.TrimSpace(raw) == "" {
		writeError(w, r, http.StatusBadRequest, msgUnknownType)
		return
	}
	kind, err := core.ParseKind(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, msgUnknownType)
		return
	}
	writeData(w, r, http.StatusOK, s.svc.Ledger().FilterByKind(kind), "")
}

// readInput decodes and validates a transaction payload, answering 400 or
// 422 itself when it cannot.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (core.TransactionInput, bool) {
	var p api.TransactionPayload
	if err := decodeBody(w, r, &p); err != nil {
		if errors.Is(err, core.ErrAmountTooLarge) {
			writeError(w, r, http.StatusUnprocessableEntity, msgAmountTooLarge)
			return core.TransactionInput{}, false
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body", log.FieldError, err)
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return core.TransactionInput{}, false
	}
	p.Description = sanitizeInput(p.Description)
	if err := validate.Struct(p); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, validationMessage(err))
		return core.TransactionInput{}, false
	}
	in, err := p.Input()
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return core.TransactionInput{}, false
	}
	return in, true
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeError(w, r, http.StatusUnprocessableEntity, ve.Error())
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger mutation failed", log.FieldError, err)
	writeError(w, r, http.StatusInternalServerError, msgSaveFailed)
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
