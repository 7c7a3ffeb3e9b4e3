package storage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "8d1c3c2e-5b7a-4e43-9f0c-0f3b1c2d4e5f"

func TestDBRemoteStore_Upsert(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   bool
	}{
		{
			name:   "mysql uses on duplicate key update",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO user_data \\(user_id, data_key, data_value\\) VALUES \\(\\?, \\?, \\?\\)\\s+ON DUPLICATE KEY UPDATE").
					WithArgs(testUserID, "attempts", "7").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name:   "postgres uses on conflict",
			driver: "postgres",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO user_data \\(user_id, data_key, data_value\\) VALUES \\(\\$1, \\$2, \\$3\\)\\s+ON CONFLICT \\(user_id, data_key\\) DO UPDATE").
					WithArgs(testUserID, "attempts", "7").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:   "db error",
			driver: "mysql",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO user_data").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			store := NewDBRemoteStore(sqlx.NewDb(db, tt.driver))
			tt.setupMock(mock)

			err = store.Upsert(context.Background(), testUserID, "attempts", []byte("7"))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRemoteStore_Find(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      []byte
		wantErr   bool
	}{
		{
			name: "returns the stored value",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT data_value FROM user_data WHERE user_id = \\? AND data_key = \\?").
					WithArgs(testUserID, "day").
					WillReturnRows(sqlmock.NewRows([]string{"data_value"}).AddRow(`{"day":3,"datetime":null}`))
			},
			want: []byte(`{"day":3,"datetime":null}`),
		},
		{
			name: "missing row returns nil",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT data_value FROM user_data").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT data_value FROM user_data").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			store := NewDBRemoteStore(sqlx.NewDb(db, "mysql"))
			tt.setupMock(mock)

			got, err := store.Find(context.Background(), testUserID, "day")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDBRemoteStore_FindAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT data_key, data_value FROM user_data WHERE user_id = \\$1").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"data_key", "data_value"}).
			AddRow("attempts", "4").
			AddRow("history", `{"Mar 09 2025":3}`))

	store := NewDBRemoteStore(sqlx.NewDb(db, "postgres"))
	got, err := store.FindAll(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		"attempts": []byte("4"),
		"history":  []byte(`{"Mar 09 2025":3}`),
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
