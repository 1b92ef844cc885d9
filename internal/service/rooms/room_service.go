package rooms

import (
	"context"
	"errors"

	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomUseCase interface {
	List(ctx context.Context) ([]domain.Room, error)
	GetByID(ctx context.Context, id string) (*domain.Room, error)
}

type RoomCache interface {
	GetRooms(ctx context.Context) ([]domain.Room, error)
	SetRooms(ctx context.Context, rooms []domain.Room) error
}

type RoomService struct {
	repo  repository.RoomRepository
	cache RoomCache // может быть nil
	log   *logrus.Entry
}

func NewRoomService(repo repository.RoomRepository, cache RoomCache, log *logrus.Entry) *RoomService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RoomService{repo: repo, cache: cache, log: log}
}

// List serves rooms from the cache and falls back to the database on a miss
// or a cache error.
func (s *RoomService) List(ctx context.Context) ([]domain.Room, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRooms(ctx)
		if err != nil {
			s.log.WithError(err).Warn("rooms cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRooms(ctx, rooms); err != nil {
			s.log.WithError(err).Warn("rooms cache write failed")
		}
	}
	return rooms, nil
}

func (s *RoomService) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

var _ RoomUseCase = (*RoomService)(nil)
