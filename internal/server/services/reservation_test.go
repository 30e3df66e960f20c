package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

func newReservationService(m *fakeRepoManager, store *fakeObjectStore) *ReservationService {
	s := NewReservationService(nil, m, store, newTestConfig(), newTestLogger())
	s.newFileID = func() string { return "fid-1" }
	return s
}

func TestBuildObjectKey(t *testing.T) {
	assert.Equal(t, "u1/f1/report.pdf", BuildObjectKey("u1", "f1", "report.pdf"))
}

func TestParseObjectKey(t *testing.T) {
	ref, err := ParseObjectKey("u1/f1/dir/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "u1", ref.OwnerID)
	assert.Equal(t, "f1", ref.FileID)
	assert.Equal(t, "dir/report.pdf", ref.Filename)

	for _, key := range []string{"", "u1", "u1/f1", "u1//x", "/f1/x", "u1/f1/"} {
		_, err := ParseObjectKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestAdmit_Success(t *testing.T) {
	m := newFakeRepoManager()
	m.q.used = 100
	store := &fakeObjectStore{putURL: "http://signed/put"}

	s := newReservationService(m, store)

	ticket, err := s.Admit(context.Background(), "u1", "report.pdf", 200)
	require.NoError(t, err)

	assert.Equal(t, "fid-1", ticket.FileID)
	assert.Equal(t, "http://signed/put", ticket.UploadURL)
	assert.Equal(t, int64(900), ticket.ExpiresIn)

	require.Equal(t, []int64{200}, m.q.reserved)

	require.Len(t, m.f.created, 1)
	rec := m.f.created[0]
	assert.Equal(t, "fid-1", rec.FileID)
	assert.Equal(t, "u1", rec.OwnerID)
	assert.Equal(t, "u1/fid-1/report.pdf", rec.ObjectKey)
	assert.Equal(t, int64(200), rec.DeclaredSizeBytes)
	assert.Equal(t, models.FileStatusPending, rec.Status)

	assert.Equal(t, []string{"u1/fid-1/report.pdf"}, store.putKeys)
}

func TestAdmit_Validation(t *testing.T) {
	s := newReservationService(newFakeRepoManager(), &fakeObjectStore{})

	_, err := s.Admit(context.Background(), "u1", "", 10)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.Admit(context.Background(), "u1", "a.txt", -1)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAdmit_ZeroSizeAllowed(t *testing.T) {
	m := newFakeRepoManager()
	s := newReservationService(m, &fakeObjectStore{putURL: "u"})

	_, err := s.Admit(context.Background(), "u1", "empty.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, m.q.reserved)
}

func TestAdmit_QuotaPreCheckRejects(t *testing.T) {
	m := newFakeRepoManager()
	m.q.used = 900
	s := newReservationService(m, &fakeObjectStore{})

	_, err := s.Admit(context.Background(), "u1", "big.bin", 200)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Empty(t, m.q.reserved)
	assert.Empty(t, m.f.created)
}

func TestAdmit_NoLedgerRowYet(t *testing.T) {
	// First upload for a user: the ledger row does not exist and Get
	// reports not found, which is not an error.
	m := newFakeRepoManager()
	m.q.getErr = common.ErrorNotFound
	s := newReservationService(m, &fakeObjectStore{putURL: "u"})

	_, err := s.Admit(context.Background(), "u1", "a.txt", 10)
	require.NoError(t, err)
}

func TestAdmit_ReserveLosesRace(t *testing.T) {
	m := newFakeRepoManager()
	m.q.reserveErr = common.ErrQuotaExceeded
	s := newReservationService(m, &fakeObjectStore{})

	_, err := s.Admit(context.Background(), "u1", "a.txt", 10)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Empty(t, m.f.created)
}

func TestAdmit_CreateFailureRefundsReservation(t *testing.T) {
	m := newFakeRepoManager()
	m.f.createErr = errors.New("insert failed")
	s := newReservationService(m, &fakeObjectStore{})

	_, err := s.Admit(context.Background(), "u1", "a.txt", 300)
	require.Error(t, err)

	assert.Equal(t, []int64{300}, m.q.reserved)
	assert.Equal(t, []int64{-300}, m.q.adjusted)
}

func TestAdmit_PresignFailure(t *testing.T) {
	m := newFakeRepoManager()
	s := newReservationService(m, &fakeObjectStore{putErr: errors.New("sign-fail")})

	_, err := s.Admit(context.Background(), "u1", "a.txt", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign-fail")
}
