package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/apperrors"
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/core/services"
	"github.com/SscSPs/doc_signing_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type DocumentServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *faultyStore
	service *services.DocumentService
}

func (suite *DocumentServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = newFaultyStore()
	suite.service = services.NewDocumentService(suite.store, suite.store, fixedClock)
}

func validDispatchRequest() dto.DispatchDocumentRequest {
	optional := false
	expires := testNow.Add(72 * time.Hour)
	return dto.DispatchDocumentRequest{
		ClientID:  "client-9",
		Title:     "Consulting Agreement",
		ExpiresAt: &expires,
		Sections:  []dto.SectionRequest{{Key: "scope", Title: "Scope", Content: "Advisory services."}},
		Signers: []dto.SignerRequest{
			{Name: "Ana", Email: "ana@example.com", Role: "client", SortOrder: 1},
			{Name: "Ben", Email: "ben@example.com", Role: "witness", IsRequired: &optional, SortOrder: 2},
		},
	}
}

func (suite *DocumentServiceTestSuite) TestDispatchDocument_Success() {
	doc, sigs, err := suite.service.DispatchDocument(suite.ctx, validDispatchRequest(), "operator-1")
	suite.Require().NoError(err)
	suite.Equal(domain.DocumentSent, doc.Status)
	suite.Equal("operator-1", doc.CreatedBy)
	suite.Require().Len(sigs, 2)
	suite.True(sigs[0].IsRequired, "signers are required unless stated otherwise")
	suite.False(sigs[1].IsRequired)

	storedDoc, storedSigs, err := suite.service.GetDocumentWithSignatures(suite.ctx, doc.DocumentID)
	suite.Require().NoError(err)
	suite.Equal(domain.DocumentSent, storedDoc.Status)
	suite.Equal("Advisory services.", storedDoc.Sections[0].Content)
	suite.Len(storedSigs, 2)
}

func (suite *DocumentServiceTestSuite) TestDispatchDocument_Validation() {
	tests := []struct {
		name   string
		mutate func(*dto.DispatchDocumentRequest)
	}{
		{name: "no signers", mutate: func(r *dto.DispatchDocumentRequest) { r.Signers = nil }},
		{name: "bad email", mutate: func(r *dto.DispatchDocumentRequest) { r.Signers[0].Email = "not-an-email" }},
		{name: "missing title", mutate: func(r *dto.DispatchDocumentRequest) { r.Title = "" }},
		{name: "expiry in the past", mutate: func(r *dto.DispatchDocumentRequest) {
			past := testNow.Add(-time.Hour)
			r.ExpiresAt = &past
		}},
		{name: "no required signer", mutate: func(r *dto.DispatchDocumentRequest) {
			optional := false
			r.Signers = r.Signers[1:]
			r.Signers[0].IsRequired = &optional
		}},
	}
	for _, tc := range tests {
		suite.Run(tc.name, func() {
			req := validDispatchRequest()
			tc.mutate(&req)
			_, _, err := suite.service.DispatchDocument(suite.ctx, req, "operator-1")
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func (suite *DocumentServiceTestSuite) TestGetDocumentWithSignatures_NotFound() {
	_, _, err := suite.service.GetDocumentWithSignatures(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *DocumentServiceTestSuite) TestDispatchDocument_SaveFailure() {
	docs := new(MockDocumentStore)
	docs.On("SaveDocument", suite.ctx, mock.AnythingOfType("domain.Document"), mock.AnythingOfType("[]domain.Signature")).Return(errConnReset).Once()
	service := services.NewDocumentService(docs, suite.store, fixedClock)

	_, _, err := service.DispatchDocument(suite.ctx, validDispatchRequest(), "operator-1")
	suite.ErrorIs(err, apperrors.ErrStorage)
	docs.AssertExpectations(suite.T())
	docs.AssertNotCalled(suite.T(), "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DocumentServiceTestSuite) TestDispatchDocument_PersistsSentInOneWrite() {
	docs := new(MockDocumentStore)
	docs.On("SaveDocument", suite.ctx,
		mock.MatchedBy(func(d domain.Document) bool { return d.Status == domain.DocumentSent }),
		mock.AnythingOfType("[]domain.Signature"),
	).Return(nil).Once()
	service := services.NewDocumentService(docs, suite.store, fixedClock)

	doc, sigs, err := service.DispatchDocument(suite.ctx, validDispatchRequest(), "operator-1")
	suite.Require().NoError(err)
	suite.Equal(domain.DocumentSent, doc.Status)
	suite.NotEmpty(sigs)
	docs.AssertExpectations(suite.T())
	docs.AssertNotCalled(suite.T(), "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceTestSuite))
}
