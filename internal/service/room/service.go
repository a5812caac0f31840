package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/domain"
	"github.com/listenroom/server/pkg/mediameta"
	"github.com/listenroom/server/pkg/randstr"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrWrongPassword       = errors.New("wrong password")
	ErrBanned              = errors.New("banned from this room")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTrackNotFound       = errors.New("track not found")
	ErrNoHost              = errors.New("room has no host")
	ErrQueueLimitReached   = errors.New("queue limit reached")
	ErrMembersLimitReached = errors.New("members limit reached")
	ErrResolve             = errors.New("could not resolve url")
	ErrValidation          = errors.New("validation failed")
)

type iRoomRepo interface {
	SetRoom(context.Context, *domain.Room) error
	GetRoom(context.Context, string) (*domain.Room, error)
}

type iConnRepo interface {
	Add(*websocket.Conn, string) error
	RemoveByMemberId(string) error
	RemoveByConn(*websocket.Conn) error
	GetConn(string) (*websocket.Conn, error)
	GetMemberId(*websocket.Conn) (string, error)
}

type iResolver interface {
	Get(mediaUrl string) (*mediameta.TrackData, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret            string
	MembersLimit      int
	QueueLimit        int
	RoomIdLength      int
	SyncGuard         time.Duration
	PresenceThreshold time.Duration
}

type service struct {
	roomRepo          iRoomRepo
	connRepo          iConnRepo
	resolver          iResolver
	generator         iGenerator
	logger            *slog.Logger
	secret            string
	membersLimit      int
	queueLimit        int
	roomIdLength      int
	syncGuard         float64
	presenceThreshold float64

	// one mutex per active room id serializes the read-modify-write cycle;
	// the store itself gives no atomicity across get and set
	roomLocks sync.Map
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, resolver iResolver, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:          roomRepo,
		connRepo:          connRepo,
		resolver:          resolver,
		logger:            logger,
		secret:            cfg.Secret,
		membersLimit:      cfg.MembersLimit,
		queueLimit:        cfg.QueueLimit,
		roomIdLength:      cfg.RoomIdLength,
		syncGuard:         cfg.SyncGuard.Seconds(),
		presenceThreshold: cfg.PresenceThreshold.Seconds(),
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

func (s *service) lockRoom(roomId string) func() {
	v, _ := s.roomLocks.LoadOrStore(roomId, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

func (s *service) now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
