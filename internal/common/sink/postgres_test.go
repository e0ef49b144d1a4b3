package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upsertPattern = `(?s)INSERT INTO "jobs" .* ON CONFLICT \(key\) DO UPDATE SET`

func TestPostgresSink_Write(t *testing.T) {
	testCases := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "all rows upserted",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(upsertPattern)
				for i := 0; i < 2; i++ {
					mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
					prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
					mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
				}
				mock.ExpectCommit()
			},
		},
		{
			name: "failed row rolls back to its savepoint and the rest commits",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(upsertPattern)
				mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep.ExpectExec().WillReturnError(errors.New("value too long for type"))
				mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT job_row")).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
		},
		{
			name: "begin error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
		{
			name: "savepoint error aborts the write",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectPrepare(upsertPattern)
				mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT job_row")).WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tc.mock(mock)

			s := newPostgresSink(db, "jobs")
			err = s.Write(context.Background(), sampleJobs())
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresSink_WriteEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newPostgresSink(db, "jobs")
	require.NoError(t, s.Write(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
