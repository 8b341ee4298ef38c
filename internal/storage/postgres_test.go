package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplement-advisor-server/internal/domain"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	doc, err := json.Marshal(v)
	require.NoError(t, err)
	return doc
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	user := &domain.UserProfile{UserID: "u1", Age: 30, Gender: domain.GenderFemale}
	mock.ExpectQuery("SELECT profile FROM user_profiles WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow(mustMarshal(t, user)))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetQueryError(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT profile FROM user_profiles WHERE user_id").
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := store.Get(context.Background(), "u1")
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	clusterID := 3
	user := &domain.UserProfile{UserID: "u1", Age: 30, Gender: domain.GenderFemale, ClusterID: &clusterID}
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("u1", sqlmock.AnyArg(), clusterID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveWithoutCluster(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	user := &domain.UserProfile{UserID: "u2", Age: 44, Gender: domain.GenderMale}
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("u2", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAll(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	users := []*domain.UserProfile{
		{UserID: "a", Age: 25, Gender: domain.GenderFemale},
		{UserID: "b", Age: 40, Gender: domain.GenderMale},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("a", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("b", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveAll(context.Background(), users))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAllRollsBackOnError(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	users := []*domain.UserProfile{{UserID: "a", Age: 25, Gender: domain.GenderFemale}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("a", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.SaveAll(context.Background(), users)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadAll(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	a := &domain.UserProfile{UserID: "a", Age: 25, Gender: domain.GenderFemale}
	b := &domain.UserProfile{UserID: "b", Age: 40, Gender: domain.GenderMale}
	mock.ExpectQuery("SELECT profile FROM user_profiles ORDER BY user_id").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).
			AddRow(mustMarshal(t, a)).
			AddRow(mustMarshal(t, b)))

	users, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].UserID)
	assert.Equal(t, "b", users[1].UserID)
}

func TestPostgresProtocolStore_Save(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	protocols := NewPostgresProtocolStore(store)

	set := map[int]*domain.ClusterProtocol{
		0: {ClusterID: 0},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cluster_protocols").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO cluster_protocols").
		WithArgs(0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, protocols.Save(context.Background(), set))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProtocolStore_Load(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	protocols := NewPostgresProtocolStore(store)

	protocol := &domain.ClusterProtocol{
		ClusterID: 1,
		Recommendations: []*domain.SupplementRecommendation{
			{Name: "Magnesium", Dosage: 350, Unit: "mg", Source: domain.SourceCluster},
		},
	}
	mock.ExpectQuery("SELECT cluster_id, protocol FROM cluster_protocols").
		WillReturnRows(sqlmock.NewRows([]string{"cluster_id", "protocol"}).
			AddRow(1, mustMarshal(t, protocol)))

	loaded, err := protocols.Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, loaded, 1)
	assert.Equal(t, protocol.Recommendations, loaded[1].Recommendations)
}
