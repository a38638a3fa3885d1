package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kyc/internal/document/models"
	"kyc/pkg/platform/sentinel"
)

type DocumentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func (s *DocumentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *DocumentStoreSuite) insert(docType models.DocumentType, hash string) models.Document {
	doc, err := s.store.Insert(s.ctx, models.Document{ProcessID: "p1", Type: docType, Hash: hash, StoragePath: "path/" + hash})
	s.Require().NoError(err)
	return doc
}

func (s *DocumentStoreSuite) TestCurrentIsHighestID() {
	s.insert(models.DocumentCardFront, "a")
	s.insert(models.DocumentCardBack, "b")
	latest := s.insert(models.DocumentCardFront, "c")

	current, err := s.store.Current(s.ctx, "p1", models.DocumentCardFront)
	s.Require().NoError(err)
	s.Equal(latest.ID, current.ID)
	s.Equal("c", current.Hash)
}

func (s *DocumentStoreSuite) TestCurrentMissing() {
	_, err := s.store.Current(s.ctx, "p1", models.DocumentVideo)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestSameHashAcrossProcessesIsLegal() {
	s.insert(models.DocumentPhoto, "same")
	_, err := s.store.Insert(s.ctx, models.Document{ProcessID: "p2", Type: models.DocumentPhoto, Hash: "same"})
	s.Require().NoError(err)

	p2, err := s.store.ListByProcess(s.ctx, "p2")
	s.Require().NoError(err)
	s.Len(p2, 1)
}

func (s *DocumentStoreSuite) TestListByProcessFiltersTypes() {
	s.insert(models.DocumentCardFront, "a")
	s.insert(models.DocumentSignature, "b")
	s.insert(models.DocumentCardBack, "c")

	docs, err := s.store.ListByProcess(s.ctx, "p1", models.DocumentCardFront, models.DocumentCardBack)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(models.DocumentCardFront, docs[0].Type)
	s.Equal(models.DocumentCardBack, docs[1].Type)
}
