package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/core/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/SscSPs/doc_signing_app/internal/middleware"
	"github.com/SscSPs/doc_signing_app/internal/repositories/memory"
	"github.com/SscSPs/doc_signing_app/internal/utils"
	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
)

// workflowWorld is the per-scenario state of the signing workflow features.
type workflowWorld struct {
	router        *gin.Engine
	operatorToken string
	dispatched    dto.DispatchDocumentResponse
	lastStatus    int
	lastBody      []byte
}

func newWorkflowWorld() (*workflowWorld, error) {
	cfg := testConfig()
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(memory.NewStore()))
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	RegisterRoutes(r, cfg, container, nil)

	token, err := utils.GenerateJWT("operator-1", cfg.JWTSecret, time.Hour, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}
	return &workflowWorld{router: r, operatorToken: token}, nil
}

func (w *workflowWorld) send(method, path, token string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "192.0.2.44:6000"
	rec := httptest.NewRecorder()
	w.router.ServeHTTP(rec, req)
	w.lastStatus = rec.Code
	w.lastBody = rec.Body.Bytes()
	return nil
}

func (w *workflowWorld) link(n int) (dto.SigningLinkResponse, error) {
	if n < 1 || n > len(w.dispatched.Links) {
		return dto.SigningLinkResponse{}, fmt.Errorf("no signer %d", n)
	}
	return w.dispatched.Links[n-1], nil
}

func (w *workflowWorld) documentDispatched(signers, required int) error {
	expires := time.Now().Add(24 * time.Hour).UTC()
	req := dto.DispatchDocumentRequest{ClientID: "client-1", Title: "Service agreement", ExpiresAt: &expires}
	for i := 0; i < signers; i++ {
		isRequired := i < required
		req.Signers = append(req.Signers, dto.SignerRequest{
			Name:       fmt.Sprintf("Signer %d", i+1),
			Email:      fmt.Sprintf("signer%d@example.com", i+1),
			IsRequired: &isRequired,
			SortOrder:  i,
		})
	}
	if err := w.send(http.MethodPost, "/api/v1/documents", w.operatorToken, req); err != nil {
		return err
	}
	if w.lastStatus != http.StatusCreated {
		return fmt.Errorf("dispatch returned %d: %s", w.lastStatus, w.lastBody)
	}
	return json.Unmarshal(w.lastBody, &w.dispatched)
}

func (w *workflowWorld) signerSigns(n int) error {
	link, err := w.link(n)
	if err != nil {
		return err
	}
	return w.send(http.MethodPost, signPath(w.dispatched.Document.DocumentID, link.SignatureID), link.Token, signBody())
}

func (w *workflowWorld) signerOpensLink(n int) error {
	link, err := w.link(n)
	if err != nil {
		return err
	}
	return w.send(http.MethodGet, signPath(w.dispatched.Document.DocumentID, link.SignatureID), link.Token, nil)
}

func (w *workflowWorld) responseStatusShouldBe(status int) error {
	if w.lastStatus != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, w.lastStatus, w.lastBody)
	}
	return nil
}

func (w *workflowWorld) documentCompleted(expected bool) func() error {
	return func() error {
		var resp dto.SignDocumentResponse
		if err := json.Unmarshal(w.lastBody, &resp); err != nil {
			return err
		}
		if resp.Completed != expected {
			return fmt.Errorf("expected completed=%t, got %t", expected, resp.Completed)
		}
		if expected && resp.Document.Status != domain.DocumentSigned {
			return fmt.Errorf("expected status signed, got %s", resp.Document.Status)
		}
		return nil
	}
}

func (w *workflowWorld) viewStateShouldBe(state string) error {
	if w.lastStatus != http.StatusOK {
		return fmt.Errorf("view returned %d: %s", w.lastStatus, w.lastBody)
	}
	var resp dto.ViewForSigningResponse
	if err := json.Unmarshal(w.lastBody, &resp); err != nil {
		return err
	}
	if string(resp.State) != state {
		return fmt.Errorf("expected view state %q, got %q", state, resp.State)
	}
	return nil
}

func (w *workflowWorld) auditTrailShouldRead(expected string) error {
	if err := w.send(http.MethodGet, "/api/v1/documents/"+w.dispatched.Document.DocumentID+"/audit", w.operatorToken, nil); err != nil {
		return err
	}
	var page dto.ListAuditEntriesResponse
	if err := json.Unmarshal(w.lastBody, &page); err != nil {
		return err
	}
	actions := make([]string, len(page.Entries))
	for i, e := range page.Entries {
		actions[i] = string(e.Action)
	}
	if got := strings.Join(actions, ", "); got != expected {
		return fmt.Errorf("expected trail %q, got %q", expected, got)
	}
	return nil
}

func (w *workflowWorld) auditTrailShouldVerify() error {
	if err := w.send(http.MethodGet, "/api/v1/documents/"+w.dispatched.Document.DocumentID+"/audit/verify", w.operatorToken, nil); err != nil {
		return err
	}
	var result domain.TrailVerification
	if err := json.Unmarshal(w.lastBody, &result); err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("trail broken at %v: %s", result.BrokenSequence, result.Reason)
	}
	return nil
}

func initializeWorkflowScenario(ctx *godog.ScenarioContext) {
	w, err := newWorkflowWorld()
	if err != nil {
		panic(err)
	}

	ctx.Step(`^a document dispatched to (\d+) signers of which (\d+) are required$`, w.documentDispatched)
	ctx.Step(`^signer (\d+) signs$`, w.signerSigns)
	ctx.Step(`^signer (\d+) opens the signing link$`, w.signerOpensLink)
	ctx.Step(`^the response status should be (\d+)$`, w.responseStatusShouldBe)
	ctx.Step(`^the document should be completed$`, w.documentCompleted(true))
	ctx.Step(`^the document should not be completed$`, w.documentCompleted(false))
	ctx.Step(`^the view state should be "([^"]*)"$`, w.viewStateShouldBe)
	ctx.Step(`^the audit trail should read "([^"]*)"$`, w.auditTrailShouldRead)
	ctx.Step(`^the audit trail should verify$`, w.auditTrailShouldVerify)
}

func TestSigningWorkflowFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "signing-workflow",
		ScenarioInitializer: initializeWorkflowScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("signing workflow features failed")
	}
}
