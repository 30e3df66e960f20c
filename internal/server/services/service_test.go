package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	sc "github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/objectstore"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/filerecords"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/quotas"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sharegrants"
)

// -------- test fakes --------

type fakeQuotasRepo struct {
	quotas.Repository

	used   int64
	getErr error

	reserveErr error
	reserved   []int64

	adjustErr error
	adjusted  []int64
}

func (f *fakeQuotasRepo) Get(ctx context.Context, userID string) (int64, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.used, nil
}

func (f *fakeQuotasRepo) Reserve(ctx context.Context, userID string, delta, maxQuota int64) (int64, error) {
	if f.reserveErr != nil {
		return 0, f.reserveErr
	}
	f.reserved = append(f.reserved, delta)
	return f.used + delta, nil
}

func (f *fakeQuotasRepo) Adjust(ctx context.Context, userID string, delta int64) (int64, error) {
	if f.adjustErr != nil {
		return 0, f.adjustErr
	}
	f.adjusted = append(f.adjusted, delta)
	return f.used + delta, nil
}

type fakeFileRecordsRepo struct {
	filerecords.Repository

	recs   map[string]*models.FileRecord // ownerID + "/" + fileID
	getErr error

	createErr error
	created   []*models.FileRecord

	markActiveErr error
	activeCalls   int

	markCorruptErr error
	corruptDetails []string
}

func (f *fakeFileRecordsRepo) Create(ctx context.Context, rec *models.FileRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeFileRecordsRepo) Get(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if rec, ok := f.recs[ownerID+"/"+fileID]; ok {
		return rec, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFileRecordsRepo) MarkActive(ctx context.Context, fileID, ownerID string, actualSize int64, checksum string) error {
	if f.markActiveErr != nil {
		return f.markActiveErr
	}
	f.activeCalls++
	return nil
}

func (f *fakeFileRecordsRepo) MarkCorrupt(ctx context.Context, fileID, ownerID, detail string) error {
	if f.markCorruptErr != nil {
		return f.markCorruptErr
	}
	f.corruptDetails = append(f.corruptDetails, detail)
	return nil
}

type fakeShareGrantsRepo struct {
	sharegrants.Repository

	createErr error
	created   []*models.ShareGrant

	findGrant *models.ShareGrant
	findErr   error

	shared    []*models.SharedFile
	sharedErr error
}

func (f *fakeShareGrantsRepo) Create(ctx context.Context, grant *models.ShareGrant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, grant)
	return nil
}

func (f *fakeShareGrantsRepo) Find(ctx context.Context, targetUserID, fileID string) (*models.ShareGrant, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findGrant == nil {
		return nil, common.ErrorNotFound
	}
	return f.findGrant, nil
}

func (f *fakeShareGrantsRepo) SelectSharedWith(ctx context.Context, targetUserID string) ([]*models.SharedFile, error) {
	return f.shared, f.sharedErr
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	q *fakeQuotasRepo
	f *fakeFileRecordsRepo
	g *fakeShareGrantsRepo
}

func (m *fakeRepoManager) Quotas(db dbx.DBTX) quotas.Repository { return m.q }
func (m *fakeRepoManager) FileRecords(db dbx.DBTX) filerecords.Repository { return m.f }
func (m *fakeRepoManager) ShareGrants(db dbx.DBTX) sharegrants.Repository { return m.g }

type fakeObjectStore struct {
	putURL  string
	putErr  error
	putKeys []string

	getURL  string
	getErr  error
	getKeys []string

	statInfo *objectstore.ObjectInfo
	statErr  error
	statKeys []string
}

func (f *fakeObjectStore) PresignPut(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return f.putURL, nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	f.getKeys = append(f.getKeys, key)
	return f.getURL, nil
}

func (f *fakeObjectStore) Stat(ctx context.Context, key string) (*objectstore.ObjectInfo, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	f.statKeys = append(f.statKeys, key)
	return f.statInfo, nil
}

// -------- helpers --------

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		q: &fakeQuotasRepo{},
		f: &fakeFileRecordsRepo{recs: map[string]*models.FileRecord{}},
		g: &fakeShareGrantsRepo{},
	}
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestConfig() *sc.Config {
	return &sc.Config{
		MaxQuotaBytes:  1000,
		UploadURLTTL:   15 * time.Minute,
		DownloadURLTTL: 15 * time.Minute,
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}
