package services

import (
	"context"
	"strings"

	"lms-realtime/internal/database"
	"lms-realtime/internal/realtime"
	"lms-realtime/pkg/logger"
)

// RoomService decides which rooms a connection belongs in. It never
// validates enrollment; the REST layer that issued the IDs owns that.
type RoomService struct {
	enrollments database.EnrollmentRepository
}

func NewRoomService(enrollments database.EnrollmentRepository) *RoomService {
	return &RoomService{enrollments: enrollments}
}

// JoinChat puts the member in the batch chat room.
func (s *RoomService) JoinChat(member Member, batchID string) {
	member.Join(realtime.BatchRoom(batchID))
}

// JoinNotifications subscribes the member to its personal room, its role
// room, and, for students, the room of every batch it is enrolled in so
// batch-targeted notifications arrive without a separate subscription per
// batch. The enrollment lookup is best effort: if it fails, the personal
// and role rooms are already joined and stay joined.
func (s *RoomService) JoinNotifications(ctx context.Context, member Member, userID, role string) {
	member.Join(realtime.UserRoom(userID))
	if role != "" {
		member.Join(realtime.RoleRoom(role))
	}

	if !strings.EqualFold(role, "student") {
		return
	}

	batchIDs, err := s.enrollments.ListStudentBatchIDs(ctx, userID)
	if err != nil {
		logger.Error("Error fetching batches for student %s: %v", userID, err)
		return
	}
	for _, batchID := range batchIDs {
		member.Join(realtime.BatchRoom(batchID))
	}
}
