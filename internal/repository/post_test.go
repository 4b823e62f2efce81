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

func TestPostRepository_ListByAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "A")
	b := seedUser(t, db, "b", "B")
	outsider := seedUser(t, db, "x", "X")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p1 := seedPost(t, db, a.ID, "first", base)
	p2 := seedPost(t, db, b.ID, "tie-low", base.Add(time.Hour))
	p3 := seedPost(t, db, a.ID, "tie-high", base.Add(time.Hour))
	seedPost(t, db, outsider.ID, "hidden", base.Add(2*time.Hour))

	require.NoError(t, db.Create(&models.Comment{PostID: p1.ID, UserID: b.ID, Text: "second", CreatedAt: base.Add(2 * time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: p1.ID, UserID: a.ID, Text: "first", CreatedAt: base.Add(time.Minute)}).Error)

	posts, err := repo.ListByAuthors(ctx, []uint{a.ID, b.ID}, models.Page{})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})

	require.Len(t, posts[2].Comments, 2)
	assert.Equal(t, "first", posts[2].Comments[0].Text)

	page, err := repo.ListByAuthors(ctx, []uint{a.ID, b.ID}, models.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, p2.ID, page[0].ID)

	none, err := repo.ListByAuthors(ctx, nil, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_ListAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	a := seedUser(t, db, "a", "A")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	older := seedPost(t, db, a.ID, "older", base)
	newer := seedPost(t, db, a.ID, "newer", base.Add(time.Second))

	posts, err := repo.ListAll(context.Background(), models.Page{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
}

func TestPostRepository_UpdateLocked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "A")
	p := seedPost(t, db, a.ID, "before", time.Now().UTC())

	_, err := repo.UpdateLocked(ctx, p.ID, func(post *models.Post) error {
		post.Caption = "hijacked"
		return models.NewForbiddenError("not yours")
	})
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Caption)

	updated, err := repo.UpdateLocked(ctx, p.ID, func(post *models.Post) error {
		post.Caption = "after"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Caption)

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Caption)

	_, err = repo.UpdateLocked(ctx, 999, func(*models.Post) error { return nil })
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_UpdateLockedUsesRowLock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 ORDER BY "posts"."id" LIMIT $2 FOR UPDATE`)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "caption", "image"}).AddRow(5, 9, "old", "a.png"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "caption"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	post, err := repo.UpdateLocked(context.Background(), 5, func(p *models.Post) error {
		p.Caption = "new"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", post.Caption)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DeleteLocked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "A")
	p := seedPost(t, db, a.ID, "doomed", time.Now().UTC())
	require.NoError(t, db.Create(&models.Comment{PostID: p.ID, UserID: a.ID, Text: "hi"}).Error)

	_, err := repo.DeleteLocked(ctx, p.ID, func(*models.Post) error {
		return models.NewForbiddenError("no")
	})
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	deleted, err := repo.DeleteLocked(ctx, p.ID, func(*models.Post) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "doomed.png", deleted.Image)

	_, err = repo.GetByID(ctx, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
	assert.Zero(t, comments)
}
