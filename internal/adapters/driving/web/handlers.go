package web

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// handleSSO receives the HTTP-Redirect binding: SAMLRequest (and an
// optional RelayState) in the query string. On success the browser gets
// a login cookie bound to the pending authentication and the credential
// form; failures render an error page and leave no pending state.
func (s *Server) handleSSO(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("SAMLRequest")
	relayState := r.URL.Query().Get("RelayState")
	if encoded == "" {
		s.renderErrorPage(w, domain.MalformedRequestError("Missing SAMLRequest parameter"))
		return
	}

	// A browser restarting the flow reuses its existing session key so
	// the new pending authentication replaces the old one instead of
	// leaving it live and consumable.
	sessionKey := ""
	if cookie, err := r.Cookie(loginCookieName); err == nil {
		if key, err := s.cookies.Decode(cookie.Value); err == nil {
			sessionKey = key
		}
	}
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	pending, err := s.idp.ReceiveAuthnRequest(encoded, relayState, sessionKey)
	if err != nil {
		s.renderErrorPage(w, err)
		return
	}

	token, err := s.cookies.Issue(sessionKey)
	if err != nil {
		s.logger.Error("login cookie issue failed", zap.Error(err))
		s.renderErrorPage(w, domain.ServiceError("Internal error", err))
		return
	}
	s.cookies.setLoginCookie(w, token)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.render.RenderLogin(w, LoginData{SPEntityID: pending.SPEntityID}); err != nil {
		s.logger.Error("login page render failed", zap.Error(err))
	}
}

// handleLoginPage re-renders the credential form, typically after a
// failed attempt. The pending authentication, if any, stays intact.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.render.RenderLogin(w, LoginData{}); err != nil {
		s.logger.Error("login page render failed", zap.Error(err))
	}
}

// handleLoginSubmit authenticates the credentials, consumes the pending
// authentication bound to the browser's cookie, and delivers the signed
// response through the auto-submitting POST form. Invalid credentials
// re-render the form without touching the pending record; every other
// failure consumes it, so the SP must start over.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderErrorPage(w, domain.BadRequestError("Invalid form submission"))
		return
	}

	cookie, err := r.Cookie(loginCookieName)
	if err != nil {
		s.renderErrorPage(w, domain.SessionExpiredError())
		return
	}
	sessionKey, err := s.cookies.Decode(cookie.Value)
	if err != nil {
		s.logger.Warn("login cookie rejected", zap.Error(err))
		clearLoginCookie(w)
		s.renderErrorPage(w, domain.SessionExpiredError())
		return
	}

	principal, err := s.users.Authenticate(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		if renderErr := s.render.RenderLogin(w, LoginData{Error: "Invalid username or password"}); renderErr != nil {
			s.logger.Error("login page render failed", zap.Error(renderErr))
		}
		return
	}

	result, err := s.idp.IssueResponse(sessionKey, principal)
	if err != nil {
		clearLoginCookie(w)
		s.renderErrorPage(w, err)
		return
	}
	clearLoginCookie(w)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = s.render.RenderAutoPost(w, AutoPostData{
		ACSURL:       result.ACSURL,
		SAMLResponse: base64.StdEncoding.EncodeToString(result.Document.Data),
		RelayState:   result.RelayState,
	})
	if err != nil {
		s.logger.Error("auto-post render failed", zap.Error(err))
	}
}

// handleMetadata serves the signed metadata document, byte for byte as
// it was signed.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	if _, err := w.Write(s.idp.Metadata()); err != nil {
		s.logger.Warn("metadata write failed", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// renderErrorPage maps an error onto its HTTP status and error page.
// Only the AppError message is shown; causes stay in the logs.
func (s *Server) renderErrorPage(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	message := "An internal error occurred"
	if appErr, ok := err.(*domain.AppError); ok {
		message = appErr.Message
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code.HTTPStatus())
	if renderErr := s.render.RenderError(w, ErrorData{Title: code.Title(), Message: message}); renderErr != nil {
		s.logger.Error("error page render failed", zap.Error(renderErr))
	}
}
