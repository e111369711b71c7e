package server

import (
	"context"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Homepage shows the feed for signed-in users and a welcome page otherwise.
// The feed holds the newest messages from the user and everyone they follow.
func (s *Server) Homepage(c *fiber.Ctx) error {
	me := currentUser(c)
	if me == nil {
		return s.render(c, "home-anon", fiber.Map{})
	}

	ownerIDs, err := s.followRepo.FollowingIDs(c.Context(), me.ID)
	if err != nil {
		return err
	}
	ownerIDs = append(ownerIDs, me.ID)

	messages, err := s.messageRepo.ListByOwners(c.Context(), ownerIDs, homeFeedLimit)
	if err != nil {
		return err
	}

	liked, err := s.likedSet(c.Context(), me.ID, messages)
	if err != nil {
		return err
	}

	return s.render(c, "home", fiber.Map{
		"Messages": messages,
		"Liked":    liked,
	})
}

// likedSet reports which of the given messages the user has liked, keyed by
// message id, so templates can mark the like toggles.
func (s *Server) likedSet(ctx context.Context, userID uint, messages []models.Message) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(messages))
	for _, m := range messages {
		has, err := s.likeRepo.HasLiked(ctx, userID, m.ID)
		if err != nil {
			return nil, err
		}
		if has {
			liked[m.ID] = true
		}
	}
	return liked, nil
}
