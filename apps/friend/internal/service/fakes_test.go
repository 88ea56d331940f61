package service

import (
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/model"
	"MoirServer/pkg/logger"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var friendServiceLoggerOnce sync.Once

func initFriendServiceTestLogger() {
	friendServiceLoggerOnce.Do(func() {
		logger.ReplaceGlobal(zap.NewNop())
	})
}

func withUserUUID(userUUID string) context.Context {
	return context.WithValue(context.Background(), "user_uuid", userUUID)
}

func requireStatusBizCode(t *testing.T, err error, wantGRPCCode codes.Code, wantBizCode int) {
	t.Helper()
	require.Error(t, err)

	st, ok := status.FromError(err)
	require.True(t, ok, "error should be grpc status")
	require.Equal(t, wantGRPCCode, st.Code())

	gotBizCode, convErr := strconv.Atoi(st.Message())
	require.NoError(t, convErr, "status message should be business code")
	require.Equal(t, wantBizCode, gotBizCode)
}

// ==================== 内存版好友申请仓储（模拟唯一索引与 CAS） ====================

type memRequestStore struct {
	mu      sync.Mutex
	byID    map[int64]*model.FriendRequest
	byPair  map[string]int64
	failErr error

	// 在 CAS 更新前执行，用于模拟并发窗口
	beforeUpdate func()
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{
		byID:   make(map[int64]*model.FriendRequest),
		byPair: make(map[string]int64),
	}
}

func (m *memRequestStore) put(req *model.FriendRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.UserLow, req.UserHigh = model.NewPairKey(req.SenderUuid, req.ReceiverUuid)
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
		req.UpdatedAt = req.CreatedAt
	}
	m.byID[req.Id] = req
	m.byPair[model.DirectKey(req.SenderUuid, req.ReceiverUuid)] = req.Id
}

func (m *memRequestStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *memRequestStore) get(id int64) *model.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *req
	return &cp
}

func (m *memRequestStore) Create(_ context.Context, req *model.FriendRequest) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.DirectKey(req.SenderUuid, req.ReceiverUuid)
	if _, ok := m.byPair[key]; ok {
		return repository.ErrDuplicateKey
	}
	req.UserLow, req.UserHigh = model.NewPairKey(req.SenderUuid, req.ReceiverUuid)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	m.byID[req.Id] = &cp
	m.byPair[key] = req.Id
	return nil
}

func (m *memRequestStore) GetByID(_ context.Context, id int64) (*model.FriendRequest, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	if req := m.get(id); req != nil {
		return req, nil
	}
	return nil, repository.ErrRecordNotFound
}

func (m *memRequestStore) GetByPair(_ context.Context, userA, userB string) (*model.FriendRequest, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	m.mu.Lock()
	id, ok := m.byPair[model.DirectKey(userA, userB)]
	m.mu.Unlock()
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return m.get(id), nil
}

func (m *memRequestStore) Revive(_ context.Context, id int64, senderUUID, receiverUUID, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok || req.Status != model.FriendRequestDeclined {
		return false, nil
	}
	req.SenderUuid = senderUUID
	req.ReceiverUuid = receiverUUID
	req.Status = model.FriendRequestPending
	req.Message = message
	req.UpdatedAt = time.Now()
	return true, nil
}

func (m *memRequestStore) UpdateStatus(_ context.Context, id int64, receiverUUID string, from, to model.FriendRequestStatus) (bool, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok || req.ReceiverUuid != receiverUUID || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	return true, nil
}

func (m *memRequestStore) DeletePending(_ context.Context, id int64, senderUUID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok || req.SenderUuid != senderUUID || req.Status != model.FriendRequestPending {
		return false, nil
	}
	delete(m.byID, id)
	delete(m.byPair, model.DirectKey(req.SenderUuid, req.ReceiverUuid))
	return true, nil
}

func (m *memRequestStore) DeleteAcceptedByPair(_ context.Context, userA, userB string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.DirectKey(userA, userB)
	id, ok := m.byPair[key]
	if !ok || m.byID[id].Status != model.FriendRequestAccepted {
		return false, nil
	}
	delete(m.byID, id)
	delete(m.byPair, key)
	return true, nil
}

func (m *memRequestStore) ListPending(_ context.Context, userUUID string) ([]*model.FriendRequest, []*model.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var incoming, outgoing []*model.FriendRequest
	for _, req := range m.byID {
		if req.Status != model.FriendRequestPending {
			continue
		}
		cp := *req
		switch userUUID {
		case req.ReceiverUuid:
			incoming = append(incoming, &cp)
		case req.SenderUuid:
			outgoing = append(outgoing, &cp)
		}
	}
	return incoming, outgoing, nil
}

func (m *memRequestStore) ListAccepted(_ context.Context, userUUID string) ([]*model.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*model.FriendRequest
	for _, req := range m.byID {
		if req.Status == model.FriendRequestAccepted && req.Involves(userUUID) {
			cp := *req
			list = append(list, &cp)
		}
	}
	return list, nil
}

// ==================== 内存版会话仓储（模拟 direct_key 唯一索引） ====================

type memChatStore struct {
	mu       sync.Mutex
	byKey    map[string]*model.Chat
	inserted int

	// 前 failTimes 次插入返回 createErr
	createErr error
	failTimes int
}

func newMemChatStore() *memChatStore {
	return &memChatStore{byKey: make(map[string]*model.Chat)}
}

func (m *memChatStore) CreateDirectIfAbsent(_ context.Context, chat *model.Chat) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTimes > 0 {
		m.failTimes--
		return false, m.createErr
	}
	if _, ok := m.byKey[*chat.DirectKey]; ok {
		return false, nil
	}
	cp := *chat
	m.byKey[*chat.DirectKey] = &cp
	m.inserted++
	return true, nil
}

func (m *memChatStore) GetDirect(_ context.Context, userA, userB string) (*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.byKey[model.DirectKey(userA, userB)]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	cp := *chat
	return &cp, nil
}

func (m *memChatStore) BatchGetDirect(_ context.Context, userUUID string, peers []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]int64)
	for _, peer := range peers {
		if chat, ok := m.byKey[model.DirectKey(userUUID, peer)]; ok {
			result[peer] = chat.Id
		}
	}
	return result, nil
}

func (m *memChatStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

// ==================== 内存版通知仓储 ====================

type memNotificationStore struct {
	mu        sync.Mutex
	items     []*model.Notification
	createErr error
}

func (m *memNotificationStore) BatchCreate(_ context.Context, notifications []*model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, notifications...)
	return nil
}

func (m *memNotificationStore) List(_ context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*model.Notification
	for _, n := range m.items {
		if n.UserUuid == userUUID {
			list = append(list, n)
		}
	}
	return list, int64(len(list)), nil
}

func (m *memNotificationStore) CountUnread(_ context.Context, userUUID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.items {
		if n.UserUuid == userUUID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationStore) MarkRead(_ context.Context, userUUID string, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var updated int64
	for _, n := range m.items {
		if n.UserUuid != userUUID || n.IsRead {
			continue
		}
		if len(ids) == 0 || want[n.Id] {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (m *memNotificationStore) snapshot() []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Notification(nil), m.items...)
}

func (m *memNotificationStore) countType(typ model.NotificationType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.Type == typ {
			count++
		}
	}
	return count
}

// ==================== 用户目录 ====================

type fakeUserRepo struct {
	users    map[string]*model.UserInfo // uuid -> user
	batchErr error
}

func newFakeUserRepo(users ...*model.UserInfo) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*model.UserInfo)}
	for _, u := range users {
		repo.users[u.Uuid] = u
	}
	return repo
}

func (f *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (*model.UserInfo, error) {
	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUUID(_ context.Context, uuid string) (*model.UserInfo, error) {
	if u, ok := f.users[uuid]; ok {
		return u, nil
	}
	return nil, repository.ErrRecordNotFound
}

func (f *fakeUserRepo) BatchGetByUUIDs(_ context.Context, uuids []string) (map[string]*model.UserInfo, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	result := make(map[string]*model.UserInfo)
	for _, uuid := range uuids {
		if u, ok := f.users[uuid]; ok {
			result[uuid] = u
		}
	}
	return result, nil
}

// ==================== 招呼语 ====================

type fakeGreeter struct {
	mu     sync.Mutex
	calls  int
	greetF func(ctx context.Context, senderUUID, receiverUUID string) string
}

func (f *fakeGreeter) Greet(ctx context.Context, senderUUID, receiverUUID string) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.greetF == nil {
		return "generated hello"
	}
	return f.greetF(ctx, senderUUID, receiverUUID)
}

func (f *fakeGreeter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ==================== 推送通道 ====================

type published struct {
	userUUID     string
	notification *model.Notification
}

type fakeChannel struct {
	mu        sync.Mutex
	messages  []published
	publishFn func(ctx context.Context, userUUID string, n *model.Notification) error
}

func (f *fakeChannel) Publish(ctx context.Context, userUUID string, n *model.Notification) error {
	f.mu.Lock()
	f.messages = append(f.messages, published{userUUID: userUUID, notification: n})
	f.mu.Unlock()
	if f.publishFn != nil {
		return f.publishFn(ctx, userUUID, n)
	}
	return nil
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeChannel) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.userUUID)
	}
	return out
}

// ==================== 测试装配 ====================

var (
	userAlice = &model.UserInfo{Uuid: "u_alice", Username: "alice", Email: "alice@moir.dev", Nickname: "Alice"}
	userBob   = &model.UserInfo{Uuid: "u_bob", Username: "bob", Email: "bob@moir.dev", Nickname: "Bob"}
	userCarol = &model.UserInfo{Uuid: "u_carol", Username: "carol", Email: "carol@moir.dev"}
)

type friendFixture struct {
	requests      *memRequestStore
	chats         *memChatStore
	notifications *memNotificationStore
	users         *fakeUserRepo
	greeter       *fakeGreeter
	channel       *fakeChannel
	svc           FriendService
}

func newFriendFixture() *friendFixture {
	f := &friendFixture{
		requests:      newMemRequestStore(),
		chats:         newMemChatStore(),
		notifications: &memNotificationStore{},
		users:         newFakeUserRepo(userAlice, userBob, userCarol),
		greeter:       &fakeGreeter{},
		channel:       &fakeChannel{},
	}
	dispatcher := NewNotificationDispatcher(f.notifications, f.users, f.channel, time.Second)
	f.svc = NewFriendService(f.requests, f.users, NewChatProvisioner(f.chats), dispatcher, f.greeter)
	return f
}
