package server

import (
	"linkparty/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFriends returns the caller's friend list.
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.GetFriends(c.UserContext(), mustUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"friends": friends})
}

// SendFriendRequest sends a friend request to the user in the path.
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.SendFriendRequest(c.UserContext(), mustUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// GetPendingRequests returns friend requests addressed to the caller.
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetPendingRequests(c.UserContext(), mustUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"requests": requests})
}

// GetSentRequests returns friend requests the caller has sent.
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetSentRequests(c.UserContext(), mustUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"requests": requests})
}

// AcceptFriendRequest accepts a pending friend request.
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.AcceptFriendRequest(c.UserContext(), mustUserID(c), requestID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(friendship)
}

// DeclineFriendRequest declines a pending friend request addressed to the caller.
func (s *Server) DeclineFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.DeclineFriendRequest(c.UserContext(), mustUserID(c), requestID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "request declined"})
}

// CancelFriendRequest withdraws a pending request the caller sent.
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.CancelFriendRequest(c.UserContext(), mustUserID(c), requestID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "request cancelled"})
}

// Unfriend removes an accepted friendship by its row id.
func (s *Server) Unfriend(c *fiber.Ctx) error {
	friendshipID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.Unfriend(c.UserContext(), mustUserID(c), friendshipID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "friend removed"})
}

// GetFriendshipStatus returns the relationship state with another user.
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, requestID, err := s.friendService.GetFriendshipStatus(c.UserContext(), mustUserID(c), targetID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	resp := fiber.Map{"status": status}
	if requestID != 0 {
		resp["request_id"] = requestID
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// BlockUser blocks the user in the path and severs any relationship.
func (s *Server) BlockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.BlockUser(c.UserContext(), mustUserID(c), targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user blocked"})
}

// UnblockUser removes a block the caller placed.
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.friendService.UnblockUser(c.UserContext(), mustUserID(c), targetID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "user unblocked"})
}
