package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"socialconnect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{Text: "Nice post!", PostID: 1, UserID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByPost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)

	a := seedUser(t, db, "a", "A")
	p := seedPost(t, db, a.ID, "p", time.Now().UTC())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Comment{PostID: p.ID, UserID: a.ID, Text: "later", CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: p.ID, UserID: a.ID, Text: "earlier", CreatedAt: base}).Error)

	comments, err := repo.ListByPost(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "earlier", comments[0].Text)
}
