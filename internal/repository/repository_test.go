package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/us-matching/internal/db"
	"github.com/oggyb/us-matching/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        db.Now,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	require.NoError(t, err)
	// a second connection would open a second, empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedProfile(t *testing.T, database *gorm.DB, id string, active bool, updated time.Time, photos ...db.Photo) {
	t.Helper()
	p := db.Profile{UserID: id, DisplayName: id, IsActive: active, UpdatedAt: updated, CreatedAt: updated, Photos: photos}
	require.NoError(t, database.Create(&p).Error)
}

func TestLikeUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, "alice", "bob", false))
	require.NoError(t, repo.Upsert(ctx, "alice", "bob", false))
	require.NoError(t, repo.Upsert(ctx, "alice", "bob", true))

	var likes []db.Like
	require.NoError(t, dbase.Find(&likes).Error)
	require.Len(t, likes, 1)
	assert.True(t, likes[0].IsSuperlike)

	ok, err := repo.Exists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikedAmongAndLists(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewLikeRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, "v", "a", false))
	require.NoError(t, repo.Upsert(ctx, "v", "b", false))
	require.NoError(t, repo.Upsert(ctx, "c", "v", false))

	ids, err := repo.LikedAmong(ctx, "v", []string{"a", "c", "d"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a"}, ids)

	ids, err = repo.LikedAmong(ctx, "v", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	in, err := repo.Incoming(ctx, "v", 50)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "c", in[0].FromUser)

	out, err := repo.Outgoing(ctx, "v", 1)
	require.NoError(t, err)
	assert.Len(t, out, 1, "limit applies")

	n, err := repo.CountIncoming(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, in[0].ID))
	require.NoError(t, repo.Delete(ctx, in[0].ID), "deleting twice is fine")
	_, err = repo.Get(ctx, in[0].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestMatchCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	m, created, err := repo.CreateIfAbsent(ctx, "zed", "amy", db.Now())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "amy", m.UserA)
	assert.Equal(t, "zed", m.UserB)

	again, created, err := repo.CreateIfAbsent(ctx, "amy", "zed", db.Now())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	var threads []db.ChatThread
	require.NoError(t, dbase.Find(&threads).Error)
	require.Len(t, threads, 1, "thread is opened once")
	require.NotNil(t, threads[0].MatchID)
	assert.Equal(t, m.ID, *threads[0].MatchID)
}

func TestMatchCreateIfAbsent_LinksExistingThread(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	chats := repository.NewChatRepository(dbase)
	matches := repository.NewMatchRepository(dbase)

	thread, err := chats.GetOrCreateThread(ctx, "bob", "amy")
	require.NoError(t, err)
	assert.Nil(t, thread.MatchID)

	m, created, err := matches.CreateIfAbsent(ctx, "amy", "bob", db.Now())
	require.NoError(t, err)
	require.True(t, created)

	linked, err := chats.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.MatchID)
	assert.Equal(t, m.ID, *linked.MatchID)
}

func TestMatchCreateIfAbsent_Race(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		creates int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "amy", "zed"
			if i%2 == 1 {
				a, b = b, a
			}
			_, created, err := repo.CreateIfAbsent(ctx, a, b, db.Now())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if created {
				creates++
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, creates)

	var count int64
	require.NoError(t, dbase.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, dbase.Model(&db.ChatThread{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMatchedAmongBothPositions(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewMatchRepository(dbase)

	_, _, err := repo.CreateIfAbsent(ctx, "m", "a", db.Now()) // stored (a, m)
	require.NoError(t, err)
	_, _, err = repo.CreateIfAbsent(ctx, "m", "z", db.Now()) // stored (m, z)
	require.NoError(t, err)

	ids, err := repo.MatchedAmong(ctx, "m", []string{"a", "z", "q"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "z"}, ids)

	list, err := repo.ListForUser(ctx, "m", 50)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListFeedCandidates(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedProfile(t, dbase, "viewer", true, base.Add(10*time.Minute), db.Photo{URL: "v"})
	seedProfile(t, dbase, "old", true, base.Add(1*time.Minute), db.Photo{URL: "o"})
	seedProfile(t, dbase, "new", true, base.Add(5*time.Minute),
		db.Photo{URL: "n2", Position: 1}, db.Photo{URL: "n1", Position: 0})
	seedProfile(t, dbase, "hidden", false, base.Add(9*time.Minute), db.Photo{URL: "h"})

	page, err := repo.ListFeedCandidates(ctx, "viewer", 0, 12)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "new", page[0].UserID)
	assert.Equal(t, "old", page[1].UserID)
	require.Len(t, page[0].Photos, 2)
	assert.Equal(t, "n1", page[0].Photos[0].URL, "photos come in position order")

	page, err = repo.ListFeedCandidates(ctx, "viewer", 1, 12)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "old", page[0].UserID)
}

func TestSetPrimaryPhoto(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	seedProfile(t, dbase, "amy", true, db.Now(),
		db.Photo{ID: "p1", URL: "1", IsPrimary: true},
		db.Photo{ID: "p2", URL: "2", Position: 1},
		db.Photo{ID: "pv", URL: "v", IsVerification: true, Position: 2},
	)
	seedProfile(t, dbase, "bob", true, db.Now(), db.Photo{ID: "b1", URL: "b"})

	require.NoError(t, repo.SetPrimaryPhoto(ctx, "amy", "p2"))
	p, err := repo.Get(ctx, "amy")
	require.NoError(t, err)
	primaries := 0
	for _, ph := range p.Photos {
		if ph.IsPrimary {
			primaries++
			assert.Equal(t, "p2", ph.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	assert.ErrorIs(t, repo.SetPrimaryPhoto(ctx, "amy", "pv"), repository.ErrVerificationPhoto)
	assert.ErrorIs(t, repo.SetPrimaryPhoto(ctx, "amy", "b1"), gorm.ErrRecordNotFound)
}

func TestProfileUpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	seedProfile(t, dbase, "amy", true, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Update(ctx, "amy", map[string]any{"bio": "hello"}))
	require.NoError(t, repo.Deactivate(ctx, "amy"))

	p, err := repo.Get(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)
	assert.False(t, p.IsActive)
	assert.True(t, p.UpdatedAt.After(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)), "updates bump updated_at")

	assert.ErrorIs(t, repo.Update(ctx, "ghost", map[string]any{"bio": "x"}), gorm.ErrRecordNotFound)
}

func TestChatMessagesPagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	thread, err := repo.GetOrCreateThread(ctx, "amy", "bob")
	require.NoError(t, err)
	same, err := repo.GetOrCreateThread(ctx, "bob", "amy")
	require.NoError(t, err)
	assert.Equal(t, thread.ID, same.ID)

	base := db.Now()
	for i := 0; i < 5; i++ {
		sender := "amy"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := repo.AppendMessage(ctx, thread, sender, fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	page1, next, err := repo.ListMessages(ctx, thread.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, "m4", page1[0].Body)
	assert.Equal(t, "m3", page1[1].Body)

	page2, next, err := repo.ListMessages(ctx, thread.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "m2", page2[0].Body)

	page3, next, err := repo.ListMessages(ctx, thread.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, "m0", page3[0].Body)

	unseen, err := repo.CountUnseenByThread(ctx, []string{thread.ID}, "amy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unseen[thread.ID])

	n, err := repo.MarkSeen(ctx, thread.ID, "amy", db.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.MarkSeen(ctx, thread.ID, "amy", db.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	threads, err := repo.ListThreads(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.NotNil(t, threads[0].LastMessageAt)
}

func TestCountUnseenByThread(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	withBob, err := repo.GetOrCreateThread(ctx, "amy", "bob")
	require.NoError(t, err)
	withCid, err := repo.GetOrCreateThread(ctx, "amy", "cid")
	require.NoError(t, err)
	quiet, err := repo.GetOrCreateThread(ctx, "amy", "dee")
	require.NoError(t, err)

	base := db.Now()
	for i, sender := range []string{"bob", "bob", "amy", "bob"} {
		_, err := repo.AppendMessage(ctx, withBob, sender, "hi", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	_, err = repo.AppendMessage(ctx, withCid, "cid", "yo", base)
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, quiet, "amy", "anyone?", base)
	require.NoError(t, err)

	counts, err := repo.CountUnseenByThread(ctx, []string{withBob.ID, withCid.ID, quiet.ID}, "amy")
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[withBob.ID])
	assert.Equal(t, int64(1), counts[withCid.ID])
	assert.NotContains(t, counts, quiet.ID)

	empty, err := repo.CountUnseenByThread(ctx, nil, "amy")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewNotificationRepository(dbase)

	base := db.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &db.Notification{
			UserID:    "amy",
			Kind:      db.KindSystem,
			Title:     fmt.Sprintf("n%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.Create(ctx, &db.Notification{UserID: "bob", Kind: db.KindMatch, Title: "other"}))

	items, next, err := repo.List(ctx, "amy", false, nil, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, next)
	assert.Equal(t, "n2", items[0].Title)

	require.NoError(t, repo.MarkRead(ctx, items[0].ID, "amy", db.Now()))
	require.NoError(t, repo.MarkRead(ctx, items[0].ID, "amy", db.Now()), "idempotent")
	assert.ErrorIs(t, repo.MarkRead(ctx, items[0].ID, "bob", db.Now()), gorm.ErrRecordNotFound)

	unread, err := repo.CountUnread(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	onlyUnread, _, err := repo.List(ctx, "amy", true, nil, 10)
	require.NoError(t, err)
	assert.Len(t, onlyUnread, 2)

	changed, err := repo.MarkAllRead(ctx, "amy", db.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	unread, err = repo.CountUnread(ctx, "amy")
	require.NoError(t, err)
	assert.Zero(t, unread)
}
