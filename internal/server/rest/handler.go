// Package rest exposes the session, profile and contract services over
// HTTP using fiber.
package rest

import (
	"fmt"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/logging"
	"github.com/dmitrijs2005/workly/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	sessions  *services.SessionService
	users     *services.UserService
	contracts *services.ContractService
	logger    logging.Logger
}

func NewHandler(s *services.SessionService, u *services.UserService, c *services.ContractService, l logging.Logger) *Handler {
	return &Handler{sessions: s, users: u, contracts: c, logger: l.With("module", "rest")}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: invalid input", common.ErrValidation)
	}
	return nil
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var input registerRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.sessions.Register(c.UserContext(), services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var input loginRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.sessions.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return err
	}
	return c.JSON(newSessionResponse(session))
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	var input refreshRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.sessions.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(newSessionResponse(session))
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	var input logoutRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}

	if err := h.sessions.Logout(c.UserContext(), principal(c).UserID(), input.RefreshToken, input.All); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.users.GetProfile(c.UserContext(), principal(c).UserID())
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(user))
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var input updateProfileRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.UserContext(), principal(c).UserID(), input.Name, input.Email)
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(user))
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var input changePasswordRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.users.ChangePassword(c.UserContext(), principal(c).UserID(), input.CurrentPassword, input.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(newUserResponse(user))
}

func (h *Handler) ListContracts(c *fiber.Ctx) error {
	list, err := h.contracts.List(c.UserContext(), principal(c).UserID())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}

	out := make([]contractResponse, 0, len(list))
	for i := range list {
		out = append(out, newContractResponse(&list[i]))
	}
	return c.JSON(out)
}

func (h *Handler) AddContract(c *fiber.Ctx) error {
	var input addContractRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	contract, err := h.contracts.Add(c.UserContext(), principal(c).UserID(), input.LinkHash)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newContractResponse(contract))
}

func (h *Handler) UpdateContract(c *fiber.Ctx) error {
	var input updateContractRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}

	contract, err := h.contracts.UpdateStatus(c.UserContext(), principal(c).UserID(), input.LinkHash, input.NewStatus)
	if err != nil {
		return err
	}
	return c.JSON(newContractResponse(contract))
}

func (h *Handler) ForceLogout(c *fiber.Ctx) error {
	n, err := h.users.ForceLogout(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	h.logger.Info(c.UserContext(), "force logout", "admin_id", principal(c).UserID(), "user_id", c.Params("id"), "revoked", n)
	return c.SendStatus(fiber.StatusNoContent)
}
