package mail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"archivist/internal/cache"
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	mailModels "archivist/internal/domain/models/mail"
	mailSvc "archivist/internal/domain/services/mail"
)

type unreadCache struct {
	mock.Mock
}

func (m *unreadCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *unreadCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *unreadCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func TestSetResponsible_SingleAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	responsible, err := f.notifier.GetResponsible(ctx)
	require.NoError(t, err)
	assert.Nil(t, responsible)

	f.assignResponsible(t, f.manager.ID)
	f.assignResponsible(t, f.reader.ID)

	responsible, err = f.notifier.GetResponsible(ctx)
	require.NoError(t, err)
	require.NotNil(t, responsible)
	assert.Equal(t, f.reader.ID, responsible.ID)

	doc := f.mustDocument(t, "Letter", nil)
	f.mustMail(t, doc.ID, "Routed once")
	assert.Equal(t, 1, f.store.NotificationCount())

	count, err := f.notifier.CountUnread(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, f.notifier.RemoveResponsible(ctx, f.admin))
	responsible, err = f.notifier.GetResponsible(ctx)
	require.NoError(t, err)
	assert.Nil(t, responsible)
}

func TestSetResponsible_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.notifier.SetResponsible(ctx, f.manager, f.reader.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.notifier.SetResponsible(ctx, f.admin, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	retired := f.store.AddUser(models.User{Username: "retired", AuthorityLevel: models.AuthorityReader})
	err = f.notifier.SetResponsible(ctx, f.admin, retired.ID)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "user_id", vErr.Field)

	err = f.notifier.RemoveResponsible(ctx, f.reader)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNotifyNewMail_NoResponsible(t *testing.T) {
	f := newFixture(t)
	doc := f.mustDocument(t, "Letter", nil)
	m := f.mustMail(t, doc.ID, "Nobody home")

	routed, err := f.notifier.NotifyNewMail(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, routed)
	assert.Equal(t, 0, f.store.NotificationCount())
}

func TestNotifyNewMail_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assignResponsible(t, f.manager.ID)
	doc := f.mustDocument(t, "Letter", nil)
	m := f.mustMail(t, doc.ID, "Routed")

	routed, err := f.notifier.NotifyNewMail(ctx, m)
	require.NoError(t, err)
	assert.True(t, routed)
	assert.Equal(t, 1, f.store.NotificationCount())
}

func TestMarkAsRead_KeepsFirstReadTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assignResponsible(t, f.manager.ID)
	doc := f.mustDocument(t, "Letter", nil)
	m := f.mustMail(t, doc.ID, "Read me")

	require.NoError(t, f.notifier.MarkAsRead(ctx, m.ID, f.manager.ID))

	later := fixedNow.Add(time.Hour)
	f.notifier.(*notificationService).now = func() time.Time { return later }
	require.NoError(t, f.notifier.MarkAsRead(ctx, m.ID, f.manager.ID))

	views, err := f.notifier.GetNotifications(ctx, f.manager.ID, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Read)
	require.NotNil(t, views[0].ReadAt)
	assert.True(t, fixedNow.Equal(*views[0].ReadAt))

	unread, err := f.notifier.GetNotifications(ctx, f.manager.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	err = f.notifier.MarkAsRead(ctx, m.ID, f.reader.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllAsRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assignResponsible(t, f.manager.ID)
	doc := f.mustDocument(t, "Letter", nil)
	first := f.mustMail(t, doc.ID, "One")
	f.mustMail(t, doc.ID, "Two")
	f.mustMail(t, doc.ID, "Three")

	require.NoError(t, f.notifier.MarkAsRead(ctx, first.ID, f.manager.ID))

	changed, err := f.notifier.MarkAllAsRead(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	changed, err = f.notifier.MarkAllAsRead(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)

	count, err := f.notifier.CountUnread(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountUnread_CachedAndInvalidated(t *testing.T) {
	c := new(unreadCache)
	c.On("Delete", mock.Anything, mock.Anything).Return(nil)

	f := newFixture(t, withCache(c))
	ctx := context.Background()
	f.assignResponsible(t, f.manager.ID)
	doc := f.mustDocument(t, "Letter", nil)
	m := f.mustMail(t, doc.ID, "Count me")

	key := cache.UnreadKey(f.manager.ID)
	c.AssertCalled(t, "Delete", mock.Anything, []string{key})

	c.On("Get", mock.Anything, key, mock.Anything).Return(false, nil).Once()
	c.On("Set", mock.Anything, key, 1, time.Minute).Return(nil).Once()

	count, err := f.notifier.CountUnread(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	c.On("Get", mock.Anything, key, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*int) = 7 }).
		Return(true, nil).Once()

	count, err = f.notifier.CountUnread(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	require.NoError(t, f.notifier.MarkAsRead(ctx, m.ID, f.manager.ID))
	c.AssertNumberOfCalls(t, "Delete", 2)
	c.AssertExpectations(t)
}

func TestGetNotifications_View(t *testing.T) {
	f := newFixture(t)
	f.assignResponsible(t, f.manager.ID)
	doc := f.mustDocument(t, "Letter", nil)

	m, err := f.workflow.CreateMail(context.Background(), f.reader, &mailSvc.CreateMailRequest{
		DocumentID: doc.ID,
		Subject:    "Urgent delivery",
		Sender:     "Port authority",
		Type:       "INCOMING",
		Priority:   "URGENT",
	})
	require.NoError(t, err)

	views, err := f.notifier.GetNotifications(context.Background(), f.manager.ID, false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, m.Code, views[0].MailCode)
	assert.Equal(t, "Port authority", views[0].Sender)
	assert.Equal(t, mailModels.PriorityUrgent, views[0].Priority)
	assert.Equal(t, mailModels.StatusNew, views[0].Status)
	assert.True(t, fixedNow.Equal(views[0].NotifiedAt))
}
