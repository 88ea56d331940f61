package service

import (
	"MoirServer/apps/friend/internal/dto"
	"MoirServer/apps/friend/internal/greeting"
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/consts"
	"MoirServer/model"
	"MoirServer/pkg/ctxmeta"
	"MoirServer/pkg/logger"
	"MoirServer/pkg/util"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// friendServiceImpl 好友关系服务实现
type friendServiceImpl struct {
	requestRepo repository.IFriendRequestRepository
	userRepo    repository.IUserRepository
	chats       ChatProvisioner
	notifier    NotificationDispatcher
	greeter     greeting.Greeter
}

// NewFriendService 创建好友服务实例
func NewFriendService(
	requestRepo repository.IFriendRequestRepository,
	userRepo repository.IUserRepository,
	chats ChatProvisioner,
	notifier NotificationDispatcher,
	greeter greeting.Greeter,
) FriendService {
	if greeter == nil {
		greeter = greeting.WithFallback(nil, "", 0)
	}
	return &friendServiceImpl{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		chats:       chats,
		notifier:    notifier,
		greeter:     greeter,
	}
}

// SendFriendRequest 发送好友申请
// 业务流程：
//  1. 校验目标（为空、是自己的 UUID 直接拒绝，不查库）
//  2. 按用户名/邮箱解析目标用户
//  3. 查询用户对现有记录：PENDING/ACCEPTED 冲突，DECLINED 复用记录
//  4. 确定招呼语：用户填写优先，否则调用生成服务（失败使用默认文本）
//  5. 写入记录，成功后通知接收方
//
// 错误码映射：
//   - codes.InvalidArgument: 目标为空、添加自己
//   - codes.NotFound: 目标用户不存在
//   - codes.AlreadyExists: 已发送申请、已是好友
//   - codes.Internal: 系统内部错误
func (s *friendServiceImpl) SendFriendRequest(ctx context.Context, req *dto.SendFriendRequestRequest) (*dto.FriendRequestItem, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeParamError))
	}

	// 1. 校验目标
	target := strings.TrimSpace(req.UsernameOrEmail)
	if target == "" {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeTargetRequired))
	}
	if target == actor {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeCannotAddSelf))
	}

	// 2. 解析目标用户
	receiver, err := s.userRepo.GetByUsernameOrEmail(ctx, target)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, status.Error(codes.NotFound, strconv.Itoa(consts.CodeUserNotFound))
		}
		logger.Error(ctx, "查询目标用户失败",
			logger.String("target", target),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if receiver.Uuid == actor {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeCannotAddSelf))
	}

	// 3. 用户对现有记录
	existing, err := s.requestRepo.GetByPair(ctx, actor, receiver.Uuid)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		logger.Error(ctx, "查询好友申请失败",
			logger.String("receiver_uuid", receiver.Uuid),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if existing != nil {
		switch existing.Status {
		case model.FriendRequestPending:
			return nil, status.Error(codes.AlreadyExists, strconv.Itoa(consts.CodeFriendRequestSent))
		case model.FriendRequestAccepted:
			return nil, status.Error(codes.AlreadyExists, strconv.Itoa(consts.CodeAlreadyFriend))
		}
	}

	// 4. 招呼语
	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = s.greeter.Greet(ctx, actor, receiver.Uuid)
	}

	// 5. 写入
	record, revived, err := s.persistRequest(ctx, existing, actor, receiver.Uuid, message)
	if err != nil {
		return nil, err
	}

	content := RequestSentContent(s.displayName(ctx, actor), record.Message, revived)
	if err := s.notifier.NotifyRequestSent(ctx, receiver.Uuid, content, record.Id); err != nil {
		// 申请已经生效，通知落库失败不回滚，接收方仍可在申请列表中看到
		logger.Error(ctx, "好友申请通知落库失败",
			logger.Int64("request_id", record.Id),
			logger.ErrorField("error", err),
		)
	}

	logger.Info(ctx, "发送好友申请成功",
		logger.Int64("request_id", record.Id),
		logger.String("receiver_uuid", receiver.Uuid),
		logger.Bool("revived", revived),
	)
	return dto.ConvertFriendRequest(record, dto.ConvertUserProfile(receiver.Uuid, receiver)), nil
}

// persistRequest 新建或复用已拒绝的记录
func (s *friendServiceImpl) persistRequest(ctx context.Context, existing *model.FriendRequest, senderUUID, receiverUUID, message string) (*model.FriendRequest, bool, error) {
	if existing == nil {
		record := model.NewFriendRequest(util.NextID(), senderUUID, receiverUUID, message)
		if err := s.requestRepo.Create(ctx, record); err != nil {
			// 双方同时发起，唯一索引拦截后到的一方
			if errors.Is(err, repository.ErrDuplicateKey) {
				return nil, false, status.Error(codes.AlreadyExists, strconv.Itoa(consts.CodeFriendRequestSent))
			}
			logger.Error(ctx, "创建好友申请失败",
				logger.String("receiver_uuid", receiverUUID),
				logger.ErrorField("error", err),
			)
			return nil, false, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
		}
		return record, false, nil
	}

	revived, err := s.requestRepo.Revive(ctx, existing.Id, senderUUID, receiverUUID, message)
	if err != nil {
		logger.Error(ctx, "重新发起好友申请失败",
			logger.Int64("request_id", existing.Id),
			logger.ErrorField("error", err),
		)
		return nil, false, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if !revived {
		// 已被并发请求改为 PENDING
		return nil, false, status.Error(codes.AlreadyExists, strconv.Itoa(consts.CodeFriendRequestSent))
	}

	existing.SenderUuid = senderUUID
	existing.ReceiverUuid = receiverUUID
	existing.Status = model.FriendRequestPending
	existing.Message = message
	existing.UpdatedAt = time.Now()
	return existing, true, nil
}

// AcceptFriendRequest 同意好友申请
// 业务流程：
//  1. 查询申请并校验当前用户为接收方
//  2. 保证单聊存在（幂等）
//  3. CAS 更新 PENDING -> ACCEPTED
//  4. 只有 CAS 成功的请求通知双方
//
// 重复同意（含并发）：记录已是 ACCEPTED 时幂等返回同一会话，不再发通知
func (s *friendServiceImpl) AcceptFriendRequest(ctx context.Context, requestID int64) (*dto.AcceptFriendRequestResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverUuid != actor {
		return nil, status.Error(codes.PermissionDenied, strconv.Itoa(consts.CodeNoPermission))
	}

	switch req.Status {
	case model.FriendRequestDeclined:
		return nil, status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	case model.FriendRequestAccepted:
		return s.acceptedResult(ctx, req)
	}

	// 先保证单聊存在再提交状态，ACCEPTED 的记录一定有会话；失败时记录仍是 PENDING，可安全重试
	chat, err := s.chats.Ensure(ctx, req.SenderUuid, req.ReceiverUuid)
	if err != nil {
		logger.Error(ctx, "创建单聊会话失败",
			logger.Int64("request_id", req.Id),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}

	updated, err := s.requestRepo.UpdateStatus(ctx, req.Id, actor, model.FriendRequestPending, model.FriendRequestAccepted)
	if err != nil {
		logger.Error(ctx, "同意好友申请失败",
			logger.Int64("request_id", req.Id),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if !updated {
		// CAS 失败，重新读取判断是被并发同意还是被撤回/拒绝
		latest, err := s.loadRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if latest.Status == model.FriendRequestAccepted && latest.ReceiverUuid == actor {
			return s.acceptedResult(ctx, latest)
		}
		return nil, status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	}

	req.Status = model.FriendRequestAccepted
	req.UpdatedAt = time.Now()

	if err := s.notifier.NotifyAccepted(ctx, req.SenderUuid, req.ReceiverUuid, chat.Id); err != nil {
		logger.Error(ctx, "好友通过通知落库失败",
			logger.Int64("request_id", req.Id),
			logger.Int64("chat_id", chat.Id),
			logger.ErrorField("error", err),
		)
	}

	logger.Info(ctx, "同意好友申请成功",
		logger.Int64("request_id", req.Id),
		logger.Int64("chat_id", chat.Id),
	)
	return &dto.AcceptFriendRequestResponse{
		Request: dto.ConvertFriendRequest(req, nil),
		ChatID:  chat.Id,
	}, nil
}

// acceptedResult 已是好友时补齐会话并返回，不发通知
func (s *friendServiceImpl) acceptedResult(ctx context.Context, req *model.FriendRequest) (*dto.AcceptFriendRequestResponse, error) {
	chat, err := s.chats.Ensure(ctx, req.SenderUuid, req.ReceiverUuid)
	if err != nil {
		logger.Error(ctx, "查询单聊会话失败",
			logger.Int64("request_id", req.Id),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	return &dto.AcceptFriendRequestResponse{
		Request: dto.ConvertFriendRequest(req, nil),
		ChatID:  chat.Id,
	}, nil
}

// DeclineFriendRequest 拒绝好友申请（不通知发起方）
func (s *friendServiceImpl) DeclineFriendRequest(ctx context.Context, requestID int64) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ReceiverUuid != actor {
		return status.Error(codes.PermissionDenied, strconv.Itoa(consts.CodeNoPermission))
	}
	if req.Status != model.FriendRequestPending {
		return status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	}

	updated, err := s.requestRepo.UpdateStatus(ctx, req.Id, actor, model.FriendRequestPending, model.FriendRequestDeclined)
	if err != nil {
		logger.Error(ctx, "拒绝好友申请失败",
			logger.Int64("request_id", req.Id),
			logger.ErrorField("error", err),
		)
		return status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if !updated {
		return status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	}
	return nil
}

// CancelFriendRequest 撤回好友申请（物理删除）
func (s *friendServiceImpl) CancelFriendRequest(ctx context.Context, requestID int64) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.SenderUuid != actor {
		return status.Error(codes.PermissionDenied, strconv.Itoa(consts.CodeNoPermission))
	}
	if req.Status != model.FriendRequestPending {
		return status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	}

	deleted, err := s.requestRepo.DeletePending(ctx, req.Id, actor)
	if err != nil {
		logger.Error(ctx, "撤回好友申请失败",
			logger.Int64("request_id", req.Id),
			logger.ErrorField("error", err),
		)
		return status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if !deleted {
		return status.Error(codes.FailedPrecondition, strconv.Itoa(consts.CodeApplyNotFoundOrHandle))
	}
	return nil
}

// RemoveFriend 删除好友，单聊会话保留
func (s *friendServiceImpl) RemoveFriend(ctx context.Context, friendUUID string) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	friendUUID = strings.TrimSpace(friendUUID)
	if friendUUID == "" || friendUUID == actor {
		return status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeParamError))
	}

	deleted, err := s.requestRepo.DeleteAcceptedByPair(ctx, actor, friendUUID)
	if err != nil {
		logger.Error(ctx, "删除好友失败",
			logger.String("friend_uuid", friendUUID),
			logger.ErrorField("error", err),
		)
		return status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	if !deleted {
		return status.Error(codes.NotFound, strconv.Itoa(consts.CodeNotFriend))
	}
	return nil
}

// ListFriendRequests 获取待处理申请
func (s *friendServiceImpl) ListFriendRequests(ctx context.Context) (*dto.FriendRequestListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	incoming, outgoing, err := s.requestRepo.ListPending(ctx, actor)
	if err != nil {
		logger.Error(ctx, "查询待处理申请失败", logger.ErrorField("error", err))
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}

	peers := lo.Uniq(append(
		lo.Map(incoming, func(r *model.FriendRequest, _ int) string { return r.SenderUuid }),
		lo.Map(outgoing, func(r *model.FriendRequest, _ int) string { return r.ReceiverUuid })...,
	))
	users := s.batchUsers(ctx, peers)

	convert := func(r *model.FriendRequest, _ int) *dto.FriendRequestItem {
		peer := r.Peer(actor)
		return dto.ConvertFriendRequest(r, dto.ConvertUserProfile(peer, users[peer]))
	}
	return &dto.FriendRequestListResponse{
		Incoming: lo.Map(incoming, convert),
		Outgoing: lo.Map(outgoing, convert),
	}, nil
}

// ListFriends 获取好友列表
// 对端用户由 OtherParticipant 计算，与记录中谁是发起方无关
func (s *friendServiceImpl) ListFriends(ctx context.Context) (*dto.FriendListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	relations, err := s.requestRepo.ListAccepted(ctx, actor)
	if err != nil {
		logger.Error(ctx, "查询好友列表失败", logger.ErrorField("error", err))
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}

	peers := lo.Map(relations, func(r *model.FriendRequest, _ int) string {
		return model.OtherParticipant(r.SenderUuid, r.ReceiverUuid, actor)
	})
	users := s.batchUsers(ctx, peers)

	chatIDs, err := s.chats.FindDirect(ctx, actor, peers)
	if err != nil {
		logger.Warn(ctx, "查询单聊会话失败", logger.ErrorField("error", err))
		chatIDs = map[string]int64{}
	}

	items := lo.Map(relations, func(r *model.FriendRequest, i int) *dto.FriendItem {
		peer := peers[i]
		return &dto.FriendItem{
			Friend: dto.ConvertUserProfile(peer, users[peer]),
			ChatID: chatIDs[peer],
			Since:  r.UpdatedAt.UnixMilli(),
		}
	})
	return &dto.FriendListResponse{Items: items, Total: len(items)}, nil
}

// loadRequest 查询申请并映射错误码
func (s *friendServiceImpl) loadRequest(ctx context.Context, requestID int64) (*model.FriendRequest, error) {
	if requestID <= 0 {
		return nil, status.Error(codes.InvalidArgument, strconv.Itoa(consts.CodeParamError))
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, status.Error(codes.NotFound, strconv.Itoa(consts.CodeFriendRequestNotFound))
		}
		logger.Error(ctx, "查询好友申请失败",
			logger.Int64("request_id", requestID),
			logger.ErrorField("error", err),
		)
		return nil, status.Error(codes.Internal, strconv.Itoa(consts.CodeInternalError))
	}
	return req, nil
}

// batchUsers 批量查询用户资料，失败时返回空表（列表仍可展示 UUID）
func (s *friendServiceImpl) batchUsers(ctx context.Context, uuids []string) map[string]*model.UserInfo {
	if len(uuids) == 0 {
		return map[string]*model.UserInfo{}
	}
	users, err := s.userRepo.BatchGetByUUIDs(ctx, uuids)
	if err != nil {
		logger.Warn(ctx, "批量查询用户资料失败", logger.ErrorField("error", err))
		return map[string]*model.UserInfo{}
	}
	return users
}

func (s *friendServiceImpl) displayName(ctx context.Context, userUUID string) string {
	user, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil || user.DisplayName() == "" {
		return unknownUserName
	}
	return user.DisplayName()
}

// actorFromContext 读取当前操作用户
func actorFromContext(ctx context.Context) (string, error) {
	userUUID := ctxmeta.UserUUIDFromContext(ctx)
	if userUUID == "" {
		return "", status.Error(codes.Unauthenticated, strconv.Itoa(consts.CodeUnauthorized))
	}
	return userUUID, nil
}
