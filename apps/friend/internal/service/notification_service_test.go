package service

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/consts"
	"MoirServer/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func seedNotifications(store *memNotificationStore, userUUID string, ids ...int64) {
	for _, id := range ids {
		store.items = append(store.items, &model.Notification{
			Id:       id,
			UserUuid: userUUID,
			Type:     model.NotificationFriendRequest,
			Content:  "content",
			RefModel: model.RefModelFriendRequest,
		})
	}
}

func TestNotificationServiceListNotifications(t *testing.T) {
	initFriendServiceTestLogger()
	store := &memNotificationStore{}
	seedNotifications(store, userAlice.Uuid, 1, 2, 3)
	seedNotifications(store, userBob.Uuid, 4)
	svc := NewNotificationService(store)

	resp, err := svc.ListNotifications(withUserUUID(userAlice.Uuid), &dto.ListNotificationsRequest{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, int32(1), resp.Pagination.Page)
	assert.Equal(t, int32(maxPageSize), resp.Pagination.PageSize)
	assert.Equal(t, int32(1), resp.Pagination.TotalPages)
	assert.Equal(t, "FRIEND_REQUEST", resp.Items[0].Type)

	_, err = svc.ListNotifications(context.Background(), nil)
	requireStatusBizCode(t, err, codes.Unauthenticated, consts.CodeUnauthorized)
}

func TestNotificationServiceUnreadAndMarkRead(t *testing.T) {
	initFriendServiceTestLogger()
	store := &memNotificationStore{}
	seedNotifications(store, userAlice.Uuid, 1, 2, 3)
	seedNotifications(store, userBob.Uuid, 4)
	svc := NewNotificationService(store)
	ctx := withUserUUID(userAlice.Uuid)

	unread, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread.Count)

	// 他人的通知不会被标记
	marked, err := svc.MarkNotificationsRead(ctx, []int64{1, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked.Updated)

	marked, err = svc.MarkNotificationsRead(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked.Updated)

	unread, err = svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread.Count)

	bobUnread, err := svc.GetUnreadCount(withUserUUID(userBob.Uuid))
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobUnread.Count)

	_, err = svc.MarkNotificationsRead(ctx, []int64{0})
	requireStatusBizCode(t, err, codes.InvalidArgument, consts.CodeParamError)
}
