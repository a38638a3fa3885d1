//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyc/internal/document/models"
	"kyc/internal/document/store"
	id "kyc/pkg/domain"
	"kyc/pkg/platform/sentinel"
	"kyc/pkg/testutil/containers"
)

type PostgresDocumentSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresDocumentSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresDocumentSuite))
}

func (s *PostgresDocumentSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresDocumentSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "documents"))
}

func doc(pid id.ProcessID, docType models.DocumentType, hash string) models.Document {
	return models.Document{
		ProcessID:   pid,
		Type:        docType,
		StoragePath: "kyc/" + pid.String() + "/" + docType.String() + "/" + hash,
		Hash:        hash,
		ContentType: "image/jpeg",
		SizeBytes:   1024,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *PostgresDocumentSuite) TestNewestRowIsCurrent() {
	ctx := context.Background()
	_, err := s.store.Insert(ctx, doc("p-1", models.DocumentPhoto, "aaa"))
	s.Require().NoError(err)
	second, err := s.store.Insert(ctx, doc("p-1", models.DocumentPhoto, "bbb"))
	s.Require().NoError(err)

	current, err := s.store.Current(ctx, "p-1", models.DocumentPhoto)
	s.Require().NoError(err)
	s.Equal(second.ID, current.ID)
	s.Equal("bbb", current.Hash)
	s.False(current.Verified)
}

func (s *PostgresDocumentSuite) TestEncryptionMetadataRoundTrips() {
	ctx := context.Background()
	d := doc("p-1", models.DocumentSignature, "ccc")
	d.Encryption = models.Encryption{Algorithm: "XCHACHA20-POLY1305", KeyID: "k1", Nonce: []byte{1, 2, 3, 4}}
	_, err := s.store.Insert(ctx, d)
	s.Require().NoError(err)

	got, err := s.store.Current(ctx, "p-1", models.DocumentSignature)
	s.Require().NoError(err)
	s.Equal(d.Encryption, got.Encryption)
}

func (s *PostgresDocumentSuite) TestListFiltersByType() {
	ctx := context.Background()
	for _, t := range []models.DocumentType{models.DocumentCardFront, models.DocumentCardBack, models.DocumentPhoto} {
		_, err := s.store.Insert(ctx, doc("p-1", t, string(t)))
		s.Require().NoError(err)
	}
	_, err := s.store.Insert(ctx, doc("p-2", models.DocumentCardFront, "other"))
	s.Require().NoError(err)

	cards, err := s.store.ListByProcess(ctx, "p-1", models.DocumentCardFront, models.DocumentCardBack)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Equal(models.DocumentCardFront, cards[0].Type)

	all, err := s.store.ListByProcess(ctx, "p-1")
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *PostgresDocumentSuite) TestCurrentOfMissingTypeIsNotFound() {
	_, err := s.store.Current(context.Background(), "p-1", models.DocumentVideo)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
