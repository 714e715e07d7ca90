//go:build unit

package web

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beevik/etree"

	samlidp "github.com/alshawwaf/SAML-IDP-Simulator"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/request"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/session"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/truststore"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/users"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

const (
	testEntityID = "https://idp.test"
	testSSOURL   = "https://idp.test/sso"
	testSPEntity = "https://sp.test"
	testACSURL   = "https://sp.test/acs"
)

// countingCorrelator wraps the in-memory correlator and counts Create
// calls, so tests can assert no pending state was recorded.
type countingCorrelator struct {
	*session.Correlator
	creates atomic.Int64
}

func (c *countingCorrelator) Create(sessionKey string, req *domain.AuthnRequest, relayState string) *domain.PendingAuthentication {
	c.creates.Add(1)
	return c.Correlator.Create(sessionKey, req, relayState)
}

type testEnv struct {
	server     *Server
	router     http.Handler
	trust      *truststore.Store
	users      *users.FileStore
	correlator *countingCorrelator
	idp        *samlidp.IdentityProvider
}

// writeKeyMaterial generates a self-signed key pair and writes it as
// PEM files.
func writeKeyMaterial(t *testing.T) (certPath, keyPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "idp.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	dir := t.TempDir()
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	certPath, keyPath := writeKeyMaterial(t)

	trust := truststore.NewStore(nil, nil)
	correlator := &countingCorrelator{Correlator: session.NewCorrelator(nil, nil)}
	userStore, err := users.NewFileStore(filepath.Join(t.TempDir(), "users.yaml"), nil)
	if err != nil {
		t.Fatalf("user store: %v", err)
	}

	idp, err := samlidp.New(samlidp.Options{
		EntityID:        testEntityID,
		SSOServiceURL:   testSSOURL,
		CertificatePath: certPath,
		KeyPath:         keyPath,
		TrustStore:      trust,
		Correlator:      correlator,
	})
	if err != nil {
		t.Fatalf("samlidp.New() returned error: %v", err)
	}

	server, err := NewServer(Options{
		IdentityProvider: idp,
		TrustStore:       trust,
		UserStore:        userStore,
		LoginTTL:         5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewServer() returned error: %v", err)
	}

	return &testEnv{
		server:     server,
		router:     server.Routes(),
		trust:      trust,
		users:      userStore,
		correlator: correlator,
		idp:        idp,
	}
}

func (env *testEnv) registerSP(t *testing.T) {
	t.Helper()
	err := env.trust.Register(&domain.TrustedSP{
		EntityID: testSPEntity,
		Name:     "Test SP",
		ACSURL:   testACSURL,
		AttributeContract: []domain.AttributeMapping{
			{Claim: "uid", SourceField: "username"},
			{Claim: "mail", SourceField: "email"},
		},
	})
	if err != nil {
		t.Fatalf("register SP: %v", err)
	}
}

func (env *testEnv) registerUser(t *testing.T) {
	t.Helper()
	err := env.users.Put(&domain.User{
		Username: "jdoe",
		Email:    "jdoe@example.com",
	}, "s3cret")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
}

// encodedAuthnRequest builds a transport-encoded AuthnRequest.
func encodedAuthnRequest(t *testing.T, issuer, requestID string) string {
	t.Helper()
	xml := `<samlp:AuthnRequest xmlns:samlp="urn:oasis:names:tc:SAML:2.0:protocol" xmlns:saml="urn:oasis:names:tc:SAML:2.0:assertion"` +
		` ID="` + requestID + `" Version="2.0" IssueInstant="2026-09-01T10:00:00Z"` +
		` Destination="` + testSSOURL + `" AssertionConsumerServiceURL="` + testACSURL + `">` +
		`<saml:Issuer>` + issuer + `</saml:Issuer></samlp:AuthnRequest>`
	encoded, err := request.EncodeRedirect([]byte(xml))
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	return encoded
}

func (env *testEnv) doSSO(t *testing.T, issuer string) *httptest.ResponseRecorder {
	t.Helper()
	return env.doSSORequest(t, issuer, "_abc123", nil)
}

func (env *testEnv) doSSORequest(t *testing.T, issuer, requestID string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sso?SAMLRequest="+url.QueryEscape(encodedAuthnRequest(t, issuer, requestID))+"&RelayState=xyz", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// TestHandleSSO_TrustedSP verifies a valid request from a registered SP
// yields the login form and a login cookie.
func TestHandleSSO_TrustedSP(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)

	rec := env.doSSO(t, testSPEntity)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), testSPEntity) {
		t.Error("login page does not name the requesting SP")
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == loginCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no login cookie set")
	}
	if got := env.correlator.creates.Load(); got != 1 {
		t.Errorf("pending records created = %d, want 1", got)
	}
}

// TestHandleSSO_UntrustedSP verifies an unregistered issuer gets a 403
// and no pending state is created.
func TestHandleSSO_UntrustedSP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doSSO(t, "https://rogue.test")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if !strings.Contains(rec.Body.String(), "Unauthorized service provider") {
		t.Error("error page does not carry the generic untrusted message")
	}
	if strings.Contains(rec.Body.String(), "rogue.test") {
		t.Error("error page leaks the rejected issuer")
	}
	if got := env.correlator.creates.Load(); got != 0 {
		t.Errorf("pending records created = %d, want 0", got)
	}
}

// TestHandleSSO_MalformedRequest verifies a garbage SAMLRequest yields
// a 400 error page.
func TestHandleSSO_MalformedRequest(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/sso?SAMLRequest=garbage", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestHandleSSO_MissingParameter verifies a bare /sso request fails.
func TestHandleSSO_MissingParameter(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/sso", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

var samlResponseRe = regexp.MustCompile(`name="SAMLResponse" value="([^"]+)"`)

func (env *testEnv) doLogin(t *testing.T, cookie *http.Cookie, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func loginCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == loginCookieName {
			return c
		}
	}
	t.Fatal("no login cookie in response")
	return nil
}

// TestLoginFlow_EndToEnd runs the full browser flow and checks the
// delivered response document.
func TestLoginFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	ssoRec := env.doSSO(t, testSPEntity)
	cookie := loginCookie(t, ssoRec)

	rec := env.doLogin(t, cookie, "jdoe", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `action="`+testACSURL+`"`) {
		t.Error("auto-post form does not target the ACS URL")
	}
	if !strings.Contains(body, `name="RelayState" value="xyz"`) {
		t.Error("relay state not passed through")
	}

	match := samlResponseRe.FindStringSubmatch(body)
	if match == nil {
		t.Fatal("no SAMLResponse field in the auto-post form")
	}
	raw, err := base64.StdEncoding.DecodeString(match[1])
	if err != nil {
		t.Fatalf("SAMLResponse is not valid base64: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	root := doc.Root()
	if got := root.SelectAttrValue("Destination", ""); got != testACSURL {
		t.Errorf("Destination = %q, want %q", got, testACSURL)
	}
	if got := root.SelectAttrValue("InResponseTo", ""); got != "_abc123" {
		t.Errorf("InResponseTo = %q, want %q", got, "_abc123")
	}
	if root.FindElement("./Signature") == nil {
		t.Error("response is not signed")
	}
	if root.FindElement("./Assertion/Signature") == nil {
		t.Error("assertion is not signed")
	}
	if nameID := root.FindElement("./Assertion/Subject/NameID"); nameID == nil || nameID.Text() != "jdoe" {
		t.Errorf("NameID missing or wrong: %v", nameID)
	}
}

// TestLoginFlow_RestartReplacesPending verifies a browser restarting
// the flow reuses its session key: the new request replaces the old
// pending record instead of leaving both live.
func TestLoginFlow_RestartReplacesPending(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	firstCookie := loginCookie(t, env.doSSORequest(t, testSPEntity, "_first", nil))
	secondRec := env.doSSORequest(t, testSPEntity, "_second", firstCookie)
	if secondRec.Code != http.StatusOK {
		t.Fatalf("restarted SSO status = %d, want %d", secondRec.Code, http.StatusOK)
	}

	// Only one pending record exists: logging in with the original
	// cookie answers the second request.
	rec := env.doLogin(t, firstCookie, "jdoe", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusOK)
	}
	match := samlResponseRe.FindStringSubmatch(rec.Body.String())
	if match == nil {
		t.Fatal("no SAMLResponse field in the auto-post form")
	}
	raw, err := base64.StdEncoding.DecodeString(match[1])
	if err != nil {
		t.Fatalf("SAMLResponse is not valid base64: %v", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if got := doc.Root().SelectAttrValue("InResponseTo", ""); got != "_second" {
		t.Errorf("InResponseTo = %q, want %q (the restarted request)", got, "_second")
	}

	// The first request's record was replaced, not left consumable.
	if rec := env.doLogin(t, firstCookie, "jdoe", "s3cret"); rec.Code != http.StatusUnauthorized {
		t.Errorf("second login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestLoginFlow_SingleUse verifies replaying the login consumes nothing
// the second time.
func TestLoginFlow_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	cookie := loginCookie(t, env.doSSO(t, testSPEntity))
	if rec := env.doLogin(t, cookie, "jdoe", "s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("first login status = %d", rec.Code)
	}

	rec := env.doLogin(t, cookie, "jdoe", "s3cret")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replayed login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "Session expired") {
		t.Error("replay did not surface a session-expired page")
	}
}

// TestLoginFlow_BadCredentials verifies wrong credentials re-render the
// form and keep the pending authentication usable.
func TestLoginFlow_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	cookie := loginCookie(t, env.doSSO(t, testSPEntity))

	rec := env.doLogin(t, cookie, "jdoe", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username or password") {
		t.Error("form does not show the credential error")
	}

	// The pending record survived; correct credentials still work.
	if rec := env.doLogin(t, cookie, "jdoe", "s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestLoginFlow_NoCookie verifies a credential POST without the login
// cookie is treated as an expired session.
func TestLoginFlow_NoCookie(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	rec := env.doLogin(t, nil, "jdoe", "s3cret")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestLoginFlow_DeregisteredSP verifies trust revoked between request
// and login blocks issuance.
func TestLoginFlow_DeregisteredSP(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)
	env.registerUser(t)

	cookie := loginCookie(t, env.doSSO(t, testSPEntity))
	if err := env.trust.Remove(testSPEntity); err != nil {
		t.Fatalf("remove SP: %v", err)
	}

	rec := env.doLogin(t, cookie, "jdoe", "s3cret")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// TestHandleMetadata verifies the metadata endpoint serves the signed
// bytes unmodified with the SAML metadata content type.
func TestHandleMetadata(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/metadata", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/samlmetadata+xml" {
		t.Errorf("Content-Type = %q, want %q", got, "application/samlmetadata+xml")
	}
	if !bytes.Equal(rec.Body.Bytes(), env.idp.Metadata()) {
		t.Error("served metadata differs from the signed document")
	}
}

// TestHandleHealthz verifies the liveness endpoint.
func TestHandleHealthz(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestAdminAPI_ServiceLifecycle exercises PUT, GET, DELETE on the
// services resource.
func TestAdminAPI_ServiceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	escaped := url.PathEscape(testSPEntity)

	putBody := `{"name":"Test SP","acs_url":"https://sp.test/acs","attribute_contract":[{"claim":"uid","source_field":"username"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/services/"+escaped, strings.NewReader(putBody))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// Replacing the same entity ID is an update, not a conflict.
	req = httptest.NewRequest(http.MethodPut, "/api/services/"+escaped, strings.NewReader(putBody))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/services/"+escaped, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
	var sp domain.TrustedSP
	if err := json.Unmarshal(rec.Body.Bytes(), &sp); err != nil {
		t.Fatalf("parse service response: %v", err)
	}
	if sp.EntityID != testSPEntity || sp.ACSURL != testACSURL {
		t.Errorf("stored service = %+v", sp)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/services/"+escaped, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/services/"+escaped, nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var errResp domain.JSONErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if errResp.Error.Code != string(domain.ErrCodeSPNotFound) {
		t.Errorf("error code = %q, want %q", errResp.Error.Code, domain.ErrCodeSPNotFound)
	}
}

// TestAdminAPI_PutService_Validation verifies bad bodies are rejected.
func TestAdminAPI_PutService_Validation(t *testing.T) {
	env := newTestEnv(t)
	escaped := url.PathEscape(testSPEntity)

	for name, body := range map[string]string{
		"invalid JSON":    "{",
		"missing acs_url": `{"name":"Test SP"}`,
	} {
		req := httptest.NewRequest(http.MethodPut, "/api/services/"+escaped, strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusBadRequest)
		}
	}
}

// TestAdminAPI_PutUser verifies account creation and that the password
// never appears in the response.
func TestAdminAPI_PutUser(t *testing.T) {
	env := newTestEnv(t)

	body := `{"password":"s3cret","email":"jdoe@example.com","groups":["staff"]}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/jdoe", strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "s3cret") {
		t.Error("password echoed in response")
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash echoed in response")
	}

	if _, err := env.users.Authenticate("jdoe", "s3cret"); err != nil {
		t.Errorf("created user does not authenticate: %v", err)
	}
}

// TestAdminAPI_DeleteUser verifies account removal.
func TestAdminAPI_DeleteUser(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/jdoe", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, err := env.users.Authenticate("jdoe", "s3cret"); err == nil {
		t.Error("deleted user still authenticates")
	}
}

// TestAdminAPI_ListServices verifies the collection endpoint.
func TestAdminAPI_ListServices(t *testing.T) {
	env := newTestEnv(t)
	env.registerSP(t)

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var list []domain.TrustedSP
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("parse list response: %v", err)
	}
	if len(list) != 1 || list[0].EntityID != testSPEntity {
		t.Errorf("list = %+v, want the registered SP", list)
	}
}
