package service

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/consts"
	"MoirServer/model"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func sendRequest(t *testing.T, f *friendFixture, from, to, message string) *dto.FriendRequestItem {
	t.Helper()
	item, err := f.svc.SendFriendRequest(withUserUUID(from), &dto.SendFriendRequestRequest{UsernameOrEmail: to, Message: message})
	require.NoError(t, err)
	return item
}

func TestFriendServiceSendFriendRequestValidation(t *testing.T) {
	initFriendServiceTestLogger()

	tests := []struct {
		name         string
		ctx          context.Context
		req          *dto.SendFriendRequestRequest
		wantGRPCCode codes.Code
		wantBizCode  int
	}{
		{
			name:         "missing_user_uuid_in_context",
			ctx:          context.Background(),
			req:          &dto.SendFriendRequestRequest{UsernameOrEmail: "bob"},
			wantGRPCCode: codes.Unauthenticated,
			wantBizCode:  consts.CodeUnauthorized,
		},
		{
			name:         "nil_request",
			ctx:          withUserUUID(userAlice.Uuid),
			req:          nil,
			wantGRPCCode: codes.InvalidArgument,
			wantBizCode:  consts.CodeParamError,
		},
		{
			name:         "empty_target",
			ctx:          withUserUUID(userAlice.Uuid),
			req:          &dto.SendFriendRequestRequest{UsernameOrEmail: "  "},
			wantGRPCCode: codes.InvalidArgument,
			wantBizCode:  consts.CodeTargetRequired,
		},
		{
			name:         "target_is_own_uuid",
			ctx:          withUserUUID(userAlice.Uuid),
			req:          &dto.SendFriendRequestRequest{UsernameOrEmail: userAlice.Uuid},
			wantGRPCCode: codes.InvalidArgument,
			wantBizCode:  consts.CodeCannotAddSelf,
		},
		{
			name:         "target_resolves_to_self",
			ctx:          withUserUUID(userAlice.Uuid),
			req:          &dto.SendFriendRequestRequest{UsernameOrEmail: "alice@moir.dev"},
			wantGRPCCode: codes.InvalidArgument,
			wantBizCode:  consts.CodeCannotAddSelf,
		},
		{
			name:         "unknown_target",
			ctx:          withUserUUID(userAlice.Uuid),
			req:          &dto.SendFriendRequestRequest{UsernameOrEmail: "nobody"},
			wantGRPCCode: codes.NotFound,
			wantBizCode:  consts.CodeUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFriendFixture()
			_, err := f.svc.SendFriendRequest(tt.ctx, tt.req)
			requireStatusBizCode(t, err, tt.wantGRPCCode, tt.wantBizCode)
			assert.Equal(t, 0, f.requests.count())
			assert.Empty(t, f.notifications.snapshot())
			assert.Equal(t, 0, f.greeter.callCount())
		})
	}
}

func TestFriendServiceSendFriendRequestCreatesPending(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

	assert.Equal(t, "PENDING", item.Status)
	assert.Equal(t, "hi", item.Message)
	assert.Equal(t, userAlice.Uuid, item.SenderUUID)
	assert.Equal(t, userBob.Uuid, item.ReceiverUUID)
	require.NotNil(t, item.Peer)
	assert.Equal(t, "bob", item.Peer.Username)
	assert.Equal(t, 0, f.greeter.callCount(), "user supplied message must not call generator")

	notifications := f.notifications.snapshot()
	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, userBob.Uuid, n.UserUuid)
	assert.Equal(t, model.NotificationFriendRequest, n.Type)
	assert.Equal(t, model.RefModelFriendRequest, n.RefModel)
	assert.Equal(t, item.RequestID, n.RelatedId)
	assert.Equal(t, `alice sent you a friend request: "hi"`, n.Content)

	require.Eventually(t, func() bool { return f.channel.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{userBob.Uuid}, f.channel.recipients())
}

func TestFriendServiceSendFriendRequestUsesGreeting(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()
	f.greeter.greetF = func(_ context.Context, senderUUID, receiverUUID string) string {
		assert.Equal(t, userAlice.Uuid, senderUUID)
		assert.Equal(t, userBob.Uuid, receiverUUID)
		return "generated for bob"
	}

	item := sendRequest(t, f, userAlice.Uuid, "bob@moir.dev", "")
	assert.Equal(t, "generated for bob", item.Message)
	assert.Equal(t, 1, f.greeter.callCount())
}

func TestFriendServiceSendFriendRequestConflicts(t *testing.T) {
	initFriendServiceTestLogger()

	t.Run("pending_same_direction", func(t *testing.T) {
		f := newFriendFixture()
		sendRequest(t, f, userAlice.Uuid, "bob", "hi")

		_, err := f.svc.SendFriendRequest(withUserUUID(userAlice.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "bob"})
		requireStatusBizCode(t, err, codes.AlreadyExists, consts.CodeFriendRequestSent)
		assert.Equal(t, 1, f.requests.count())
	})

	t.Run("pending_reverse_direction", func(t *testing.T) {
		f := newFriendFixture()
		sendRequest(t, f, userAlice.Uuid, "bob", "hi")

		_, err := f.svc.SendFriendRequest(withUserUUID(userBob.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "alice"})
		requireStatusBizCode(t, err, codes.AlreadyExists, consts.CodeFriendRequestSent)
		assert.Equal(t, 1, f.requests.count())
		assert.Len(t, f.notifications.snapshot(), 1)
	})

	t.Run("already_friends", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		require.NoError(t, err)

		_, err = f.svc.SendFriendRequest(withUserUUID(userBob.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "alice"})
		requireStatusBizCode(t, err, codes.AlreadyExists, consts.CodeAlreadyFriend)
	})
}

func TestFriendServiceSendFriendRequestStoreFailure(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()
	f.requests.failErr = errors.New("db down")

	_, err := f.svc.SendFriendRequest(withUserUUID(userAlice.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "bob"})
	requireStatusBizCode(t, err, codes.Internal, consts.CodeInternalError)
}

func TestFriendServiceMutualSimultaneousSend(t *testing.T) {
	initFriendServiceTestLogger()

	for i := 0; i < 20; i++ {
		f := newFriendFixture()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = f.svc.SendFriendRequest(withUserUUID(userAlice.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "bob", Message: "a"})
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = f.svc.SendFriendRequest(withUserUUID(userBob.Uuid), &dto.SendFriendRequestRequest{UsernameOrEmail: "alice", Message: "b"})
		}()
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				failed++
				requireStatusBizCode(t, err, codes.AlreadyExists, consts.CodeFriendRequestSent)
			}
		}
		require.Equal(t, 1, failed)
		require.Equal(t, 1, f.requests.count())
	}
}

func TestFriendServiceAcceptFriendRequest(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	resp, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)

	assert.Equal(t, "ACCEPTED", resp.Request.Status)
	assert.NotZero(t, resp.ChatID)

	chat, err := f.chats.GetDirect(context.Background(), userAlice.Uuid, userBob.Uuid)
	require.NoError(t, err)
	assert.Equal(t, resp.ChatID, chat.Id)
	assert.False(t, chat.IsGroup)
	assert.ElementsMatch(t, []string{userAlice.Uuid, userBob.Uuid}, chat.ParticipantUuids())

	var accepted []*model.Notification
	for _, n := range f.notifications.snapshot() {
		if n.Type == model.NotificationFriendAccepted {
			accepted = append(accepted, n)
		}
	}
	require.Len(t, accepted, 2)

	contents := map[string]string{}
	for _, n := range accepted {
		assert.Equal(t, model.RefModelChat, n.RefModel)
		assert.Equal(t, resp.ChatID, n.RelatedId)
		contents[n.UserUuid] = n.Content
	}
	assert.Equal(t, "bob accepted your friend request", contents[userAlice.Uuid])
	assert.Equal(t, "You are now friends with alice", contents[userBob.Uuid])

	// 1 条申请通知 + 2 条好友通知
	require.Eventually(t, func() bool { return f.channel.count() == 3 }, time.Second, 5*time.Millisecond)
}

func TestFriendServiceAcceptFriendRequestGuards(t *testing.T) {
	initFriendServiceTestLogger()

	t.Run("unknown_request", func(t *testing.T) {
		f := newFriendFixture()
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), 404)
		requireStatusBizCode(t, err, codes.NotFound, consts.CodeFriendRequestNotFound)
	})

	t.Run("invalid_id", func(t *testing.T) {
		f := newFriendFixture()
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), 0)
		requireStatusBizCode(t, err, codes.InvalidArgument, consts.CodeParamError)
	})

	t.Run("sender_cannot_accept", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userAlice.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.PermissionDenied, consts.CodeNoPermission)
		assert.Equal(t, model.FriendRequestPending, f.requests.get(item.RequestID).Status)
	})

	t.Run("third_party_cannot_accept", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userCarol.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.PermissionDenied, consts.CodeNoPermission)
	})

	t.Run("declined_request", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		require.NoError(t, f.svc.DeclineFriendRequest(withUserUUID(userBob.Uuid), item.RequestID))

		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.FailedPrecondition, consts.CodeApplyNotFoundOrHandle)
		assert.Equal(t, 0, f.chats.count())
	})
}

func TestFriendServiceAcceptTwiceIsIdempotent(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	first, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)
	second, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)

	assert.Equal(t, first.ChatID, second.ChatID)
	assert.Equal(t, 1, f.chats.count())
	assert.Len(t, f.notifications.snapshot(), 3)
}

func TestFriendServiceConcurrentAccept(t *testing.T) {
	initFriendServiceTestLogger()

	for i := 0; i < 20; i++ {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

		// 两个请求都读到 PENDING 后再进入 CAS
		var ready sync.WaitGroup
		ready.Add(2)
		f.requests.beforeUpdate = func() {
			ready.Done()
			ready.Wait()
		}

		var wg sync.WaitGroup
		results := make([]*dto.AcceptFriendRequestResponse, 2)
		errs := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				results[j], errs[j] = f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
			}(j)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.Equal(t, results[0].ChatID, results[1].ChatID)
		assert.Equal(t, 1, f.chats.count())
		assert.Equal(t, 1, f.chats.inserted)

		accepted := 0
		for _, n := range f.notifications.snapshot() {
			if n.Type == model.NotificationFriendAccepted {
				accepted++
			}
		}
		assert.Equal(t, 2, accepted, "exactly one notification pair")
	}
}

func TestFriendServiceAcceptChatFailureIsRetryable(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()
	f.chats.createErr = errors.New("insert chat failed")
	f.chats.failTimes = 1

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

	_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	requireStatusBizCode(t, err, codes.Internal, consts.CodeInternalError)
	// 会话未建成时申请仍是 PENDING，不会出现没有会话的好友关系
	assert.Equal(t, model.FriendRequestPending, f.requests.get(item.RequestID).Status)
	assert.Equal(t, 0, f.chats.count())
	assert.Equal(t, 0, f.notifications.countType(model.NotificationFriendAccepted))

	resp, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)
	assert.NotZero(t, resp.ChatID)
	assert.Equal(t, model.FriendRequestAccepted, f.requests.get(item.RequestID).Status)
	assert.Equal(t, 1, f.chats.count())
	assert.Equal(t, 2, f.notifications.countType(model.NotificationFriendAccepted))

	friends, err := f.svc.ListFriends(withUserUUID(userAlice.Uuid))
	require.NoError(t, err)
	require.Len(t, friends.Items, 1)
	assert.Equal(t, resp.ChatID, friends.Items[0].ChatID)
}

func TestFriendServiceAcceptLosesToConcurrentChange(t *testing.T) {
	initFriendServiceTestLogger()

	t.Run("declined_before_cas", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		f.requests.beforeUpdate = func() {
			f.requests.mu.Lock()
			f.requests.byID[item.RequestID].Status = model.FriendRequestDeclined
			f.requests.mu.Unlock()
		}

		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.FailedPrecondition, consts.CodeApplyNotFoundOrHandle)
		assert.Equal(t, model.FriendRequestDeclined, f.requests.get(item.RequestID).Status)
		assert.Equal(t, 0, f.notifications.countType(model.NotificationFriendAccepted))
	})

	t.Run("cancelled_before_cas", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		f.requests.beforeUpdate = func() {
			ok, err := f.requests.DeletePending(context.Background(), item.RequestID, userAlice.Uuid)
			require.NoError(t, err)
			require.True(t, ok)
		}

		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		// 撤回是物理删除，重新读取时记录已不存在
		requireStatusBizCode(t, err, codes.NotFound, consts.CodeFriendRequestNotFound)
		assert.Nil(t, f.requests.get(item.RequestID))
		assert.Equal(t, 0, f.notifications.countType(model.NotificationFriendAccepted))
	})
}

func TestFriendServiceDeclineThenResend(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	first := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	require.NoError(t, f.svc.DeclineFriendRequest(withUserUUID(userBob.Uuid), first.RequestID))
	assert.Equal(t, model.FriendRequestDeclined, f.requests.get(first.RequestID).Status)
	// 拒绝不发通知
	assert.Len(t, f.notifications.snapshot(), 1)

	// 被拒绝方反向重新发起，复用同一条记录
	second := sendRequest(t, f, userBob.Uuid, "alice", "again")
	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, 1, f.requests.count())

	stored := f.requests.get(first.RequestID)
	assert.Equal(t, model.FriendRequestPending, stored.Status)
	assert.Equal(t, userBob.Uuid, stored.SenderUuid)
	assert.Equal(t, userAlice.Uuid, stored.ReceiverUuid)
	assert.Equal(t, "again", stored.Message)

	notifications := f.notifications.snapshot()
	require.Len(t, notifications, 2)
	last := notifications[1]
	assert.Equal(t, userAlice.Uuid, last.UserUuid)
	assert.Equal(t, "bob sent you a friend request", last.Content)
	assert.Equal(t, first.RequestID, last.RelatedId)
}

func TestFriendServiceDeclineGuards(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()
	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

	err := f.svc.DeclineFriendRequest(withUserUUID(userAlice.Uuid), item.RequestID)
	requireStatusBizCode(t, err, codes.PermissionDenied, consts.CodeNoPermission)

	require.NoError(t, f.svc.DeclineFriendRequest(withUserUUID(userBob.Uuid), item.RequestID))

	err = f.svc.DeclineFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	requireStatusBizCode(t, err, codes.FailedPrecondition, consts.CodeApplyNotFoundOrHandle)
}

func TestFriendServiceCancelFriendRequest(t *testing.T) {
	initFriendServiceTestLogger()

	t.Run("sender_cancels_pending", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

		require.NoError(t, f.svc.CancelFriendRequest(withUserUUID(userAlice.Uuid), item.RequestID))
		assert.Equal(t, 0, f.requests.count())

		// 用户对已释放，可以重新发起
		again := sendRequest(t, f, userAlice.Uuid, "bob", "hi again")
		assert.NotEqual(t, item.RequestID, again.RequestID)
	})

	t.Run("receiver_cannot_cancel", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")

		err := f.svc.CancelFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.PermissionDenied, consts.CodeNoPermission)
		assert.Equal(t, 1, f.requests.count())
	})

	t.Run("accepted_cannot_cancel", func(t *testing.T) {
		f := newFriendFixture()
		item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
		_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
		require.NoError(t, err)

		err = f.svc.CancelFriendRequest(withUserUUID(userAlice.Uuid), item.RequestID)
		requireStatusBizCode(t, err, codes.FailedPrecondition, consts.CodeApplyNotFoundOrHandle)
	})

	t.Run("unknown_request", func(t *testing.T) {
		f := newFriendFixture()
		err := f.svc.CancelFriendRequest(withUserUUID(userAlice.Uuid), 12345)
		requireStatusBizCode(t, err, codes.NotFound, consts.CodeFriendRequestNotFound)
	})
}

func TestFriendServiceRemoveFriendKeepsChat(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	resp, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)

	// 发起方和接收方都可以删除
	require.NoError(t, f.svc.RemoveFriend(withUserUUID(userAlice.Uuid), userBob.Uuid))
	assert.Equal(t, 0, f.requests.count())

	chat, err := f.chats.GetDirect(context.Background(), userAlice.Uuid, userBob.Uuid)
	require.NoError(t, err)
	assert.Equal(t, resp.ChatID, chat.Id)

	err = f.svc.RemoveFriend(withUserUUID(userBob.Uuid), userAlice.Uuid)
	requireStatusBizCode(t, err, codes.NotFound, consts.CodeNotFriend)

	// 重新成为好友时复用原会话
	again := sendRequest(t, f, userBob.Uuid, "alice", "back")
	resp2, err := f.svc.AcceptFriendRequest(withUserUUID(userAlice.Uuid), again.RequestID)
	require.NoError(t, err)
	assert.Equal(t, resp.ChatID, resp2.ChatID)
	assert.Equal(t, 1, f.chats.count())
}

func TestFriendServiceRemoveFriendGuards(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	err := f.svc.RemoveFriend(withUserUUID(userAlice.Uuid), "")
	requireStatusBizCode(t, err, codes.InvalidArgument, consts.CodeParamError)

	// 待处理申请不是好友关系
	sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	err = f.svc.RemoveFriend(withUserUUID(userAlice.Uuid), userBob.Uuid)
	requireStatusBizCode(t, err, codes.NotFound, consts.CodeNotFriend)
	assert.Equal(t, 1, f.requests.count())
}

func TestFriendServiceListFriendRequests(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	sendRequest(t, f, userAlice.Uuid, "bob", "to bob")
	sendRequest(t, f, userCarol.Uuid, "alice", "to alice")

	resp, err := f.svc.ListFriendRequests(withUserUUID(userAlice.Uuid))
	require.NoError(t, err)

	require.Len(t, resp.Incoming, 1)
	assert.Equal(t, userCarol.Uuid, resp.Incoming[0].SenderUUID)
	assert.Equal(t, "carol", resp.Incoming[0].Peer.Username)

	require.Len(t, resp.Outgoing, 1)
	assert.Equal(t, userBob.Uuid, resp.Outgoing[0].ReceiverUUID)
	assert.Equal(t, "bob", resp.Outgoing[0].Peer.Username)
}

func TestFriendServiceListFriends(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	toBob := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	fromCarol := sendRequest(t, f, userCarol.Uuid, "alice", "hey")
	bobChat, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), toBob.RequestID)
	require.NoError(t, err)
	carolChat, err := f.svc.AcceptFriendRequest(withUserUUID(userAlice.Uuid), fromCarol.RequestID)
	require.NoError(t, err)

	resp, err := f.svc.ListFriends(withUserUUID(userAlice.Uuid))
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)

	chatByFriend := map[string]int64{}
	for _, item := range resp.Items {
		chatByFriend[item.Friend.UUID] = item.ChatID
	}
	assert.Equal(t, bobChat.ChatID, chatByFriend[userBob.Uuid])
	assert.Equal(t, carolChat.ChatID, chatByFriend[userCarol.Uuid])

	// 用户目录不可用时仍返回好友 UUID
	f.users.batchErr = errors.New("directory down")
	resp, err = f.svc.ListFriends(withUserUUID(userBob.Uuid))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, userAlice.Uuid, resp.Items[0].Friend.UUID)
	assert.Empty(t, resp.Items[0].Friend.Username)
}

func TestFriendServiceDeliveryFailureDoesNotFailActions(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()
	f.channel.publishFn = func(context.Context, string, *model.Notification) error {
		return errors.New("broker unavailable")
	}

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	_, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)

	assert.Len(t, f.notifications.snapshot(), 3)
	require.Eventually(t, func() bool { return f.channel.count() == 3 }, time.Second, 5*time.Millisecond)
}

func TestFriendServiceNotificationPersistFailureDoesNotFailAccept(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	item := sendRequest(t, f, userAlice.Uuid, "bob", "hi")
	f.notifications.createErr = errors.New("insert failed")

	resp, err := f.svc.AcceptFriendRequest(withUserUUID(userBob.Uuid), item.RequestID)
	require.NoError(t, err)
	assert.NotZero(t, resp.ChatID)
	assert.Equal(t, model.FriendRequestAccepted, f.requests.get(item.RequestID).Status)
}

func TestFriendServiceErrorsAreStatus(t *testing.T) {
	initFriendServiceTestLogger()
	f := newFriendFixture()

	_, err := f.svc.ListFriends(context.Background())
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
}
