package api

import (
	"errors"
	"net/http"

	"github.com/Craig-Turley/listsync/internal/logging"
	"github.com/Craig-Turley/listsync/internal/services"
	"github.com/Craig-Turley/listsync/pkg/utils"
)

var errTrailingData = utils.NewError("body must contain a single JSON object")

// errorResponse maps a service error onto a status code and body.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *services.ValidationError
		notFoundErr     *services.NotFoundError
		preconditionErr *services.PreconditionError
		remoteErr       *services.RemoteError
	)

	switch {
	case errors.As(err, &validationErr):
		s.validationErrorResponse(w, r, validationErr)
	case errors.As(err, &notFoundErr):
		s.notFoundResponse(w, r, err)
	case errors.As(err, &preconditionErr):
		s.conflictResponse(w, r, err)
	case errors.As(err, &remoteErr):
		s.badGatewayResponse(w, r, err)
	default:
		s.internalServerError(w, r, err)
	}
}

func (s *Server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = utils.NewError("Internal Server Error")
	}

	logging.Ctx(r.Context()).Error().Stack().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("internal error")

	body := map[string]any{"message": err.Error()}
	if outcome := services.OutcomeOf(err); outcome != services.OutcomeNoWrite {
		body["sync_state"] = outcome.String()
	}
	s.jsonResponse(w, r, http.StatusInternalServerError, body)
}

func (s *Server) badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("remote error")

	s.jsonResponse(w, r, http.StatusBadGateway, map[string]any{
		"message":    err.Error(),
		"sync_state": services.OutcomeOf(err).String(),
	})
}

func (s *Server) validationErrorResponse(w http.ResponseWriter, r *http.Request, err *services.ValidationError) {
	logging.Ctx(r.Context()).Debug().Strs("fields", err.Errors.Fields()).Msg("validation failed")

	s.jsonResponse(w, r, http.StatusBadRequest, map[string]any{
		"message": err.Error(),
		"errors":  err.Errors,
	})
}

func (s *Server) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("bad request")

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("conflict")

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (s *Server) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("not found")

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unauthorized")

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}
