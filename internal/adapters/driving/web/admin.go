package web

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// servicePayload is the admin API body for registering or updating a
// service provider. The entity ID comes from the URL path.
type servicePayload struct {
	Name              string                    `json:"name,omitempty"`
	ACSURL            string                    `json:"acs_url"`
	AttributeContract []domain.AttributeMapping `json:"attribute_contract,omitempty"`
}

// userPayload is the admin API body for creating or updating an account.
type userPayload struct {
	Password  string   `json:"password"`
	Email     string   `json:"email,omitempty"`
	GivenName string   `json:"given_name,omitempty"`
	Surname   string   `json:"surname,omitempty"`
	Groups    []string `json:"groups,omitempty"`
}

// pathEntityID extracts and unescapes the entityID path parameter.
// Entity IDs are URLs, so clients percent-encode them.
func pathEntityID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "entityID")
	entityID, err := url.PathUnescape(raw)
	if err != nil || entityID == "" {
		return "", domain.BadRequestError("Invalid entity ID in path")
	}
	return entityID, nil
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.trust.All())
}

// handlePutService upserts a trust relationship: a new entity ID is
// registered, an existing one is replaced.
func (s *Server) handlePutService(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathEntityID(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}

	var payload servicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSONError(w, domain.BadRequestError("Invalid JSON body"))
		return
	}
	if payload.ACSURL == "" {
		s.writeJSONError(w, domain.BadRequestError("acs_url is required"))
		return
	}

	sp := &domain.TrustedSP{
		EntityID:          entityID,
		Name:              payload.Name,
		ACSURL:            payload.ACSURL,
		AttributeContract: payload.AttributeContract,
	}

	status := http.StatusOK
	if s.trust.Validate(entityID) {
		err = s.trust.Update(sp)
	} else {
		err = s.trust.Register(sp)
		status = http.StatusCreated
	}
	if err != nil {
		s.writeJSONError(w, err)
		return
	}

	stored, err := s.trust.Lookup(entityID)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.logger.Info("service provider stored", zap.String("entity_id", entityID))
	s.writeJSON(w, status, stored)
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathEntityID(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	sp, err := s.trust.Lookup(entityID)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sp)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathEntityID(r)
	if err != nil {
		s.writeJSONError(w, err)
		return
	}
	if err := s.trust.Remove(entityID); err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.logger.Info("service provider removed", zap.String("entity_id", entityID))
	w.WriteHeader(http.StatusNoContent)
}

// handlePutUser upserts an account. The password is hashed by the user
// store and never echoed back.
func (s *Server) handlePutUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		s.writeJSONError(w, domain.BadRequestError("Invalid username in path"))
		return
	}

	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeJSONError(w, domain.BadRequestError("Invalid JSON body"))
		return
	}
	if payload.Password == "" {
		s.writeJSONError(w, domain.BadRequestError("password is required"))
		return
	}

	user := &domain.User{
		Username:  username,
		Email:     payload.Email,
		GivenName: payload.GivenName,
		Surname:   payload.Surname,
		Groups:    payload.Groups,
	}
	if err := s.users.Put(user, payload.Password); err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.logger.Info("user stored", zap.String("username", username))
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		s.writeJSONError(w, domain.BadRequestError("Invalid username in path"))
		return
	}
	if err := s.users.Remove(username); err != nil {
		s.writeJSONError(w, err)
		return
	}
	s.logger.Info("user removed", zap.String("username", username))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*domain.AppError)
	if !ok {
		appErr = domain.ServiceError("An internal error occurred", err)
	}
	if appErr.Code.HTTPStatus() >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", appErr.Code.String()), zap.Error(appErr))
	}
	s.writeJSON(w, appErr.Code.HTTPStatus(), domain.NewJSONErrorResponse(appErr))
}
