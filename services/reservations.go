package services

import (
	"context"
	"fmt"
	"strconv"
	"unitimetable/config"
	"unitimetable/database"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	ReservationKindRoom      = "room"
	ReservationKindProfessor = "professor"
)

// ReservationService closes the check-then-act window between an
// availability check and the save that follows it. A passed check places a
// short-lived reservation on each probed (day, time_slot, resource) key
// for the acting admin; a save touching those resources verifies the keys
// are either free or owned by the same admin.
//
// Reservations are advisory. Without Redis every call is a no-op and the
// system degrades to plain check-then-save.
type ReservationService struct{}

func NewReservationService() *ReservationService {
	return &ReservationService{}
}

func reservationKey(kind, day, timeSlot, resource string) string {
	return fmt.Sprintf("reserve:%s:%s:%s:%s", kind, day, timeSlot, resource)
}

// Reserve places or refreshes a reservation for ownerID. It fails with
// ErrReserved when another user currently holds the key.
func (rs *ReservationService) Reserve(ctx context.Context, kind, day, timeSlot, resource string, ownerID uint) error {
	client := database.GetRedisClient()
	if client == nil {
		return nil
	}

	key := reservationKey(kind, day, timeSlot, resource)
	ttl := config.AppConfig.ReservationTTL

	ok, err := client.SetNX(ctx, key, strconv.FormatUint(uint64(ownerID), 10), ttl).Result()
	if err != nil {
		logrus.WithError(err).Warn("reservation setnx failed")
		return nil
	}
	if ok {
		return nil
	}

	holder, err := rs.owner(ctx, client, key)
	if err != nil {
		return nil
	}
	if holder != ownerID {
		return ErrReserved
	}
	// Same owner: refresh the TTL
	if err := client.Expire(ctx, key, ttl).Err(); err != nil {
		logrus.WithError(err).Warn("reservation refresh failed")
	}
	return nil
}

// Verify checks that the resource is free or held by ownerID.
func (rs *ReservationService) Verify(ctx context.Context, kind, day, timeSlot, resource string, ownerID uint) error {
	client := database.GetRedisClient()
	if client == nil {
		return nil
	}

	holder, err := rs.owner(ctx, client, reservationKey(kind, day, timeSlot, resource))
	if err != nil {
		return nil
	}
	if holder != 0 && holder != ownerID {
		return ErrReserved
	}
	return nil
}

// Release drops a reservation held by ownerID. Releasing a key held by
// someone else is a no-op.
func (rs *ReservationService) Release(ctx context.Context, kind, day, timeSlot, resource string, ownerID uint) {
	client := database.GetRedisClient()
	if client == nil {
		return
	}

	key := reservationKey(kind, day, timeSlot, resource)
	holder, err := rs.owner(ctx, client, key)
	if err != nil || holder != ownerID {
		return
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		logrus.WithError(err).Warn("reservation release failed")
	}
}

// owner returns the holding user id, 0 when the key is free.
func (rs *ReservationService) owner(ctx context.Context, client *redis.Client, key string) (uint, error) {
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		logrus.WithError(err).Warn("reservation lookup failed")
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
