// Package handlers contains the fiber HTTP handlers. Handlers parse and
// validate requests, call services and translate domain errors; they hold no
// business logic.
package handlers

import (
	"errors"
	"strconv"

	"fundlink/internal/models"
	"fundlink/internal/money"
	"fundlink/internal/services/account"
	"fundlink/internal/services/ledger"
	"fundlink/internal/services/transfer"
	"fundlink/internal/utils/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	accounts  account.Service
	transfers transfer.Service
	ledger    ledger.Service
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewPaymentHandler(accounts account.Service, transfers transfer.Service, ledgerSvc ledger.Service, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{
		accounts:  accounts,
		transfers: transfers,
		ledger:    ledgerSvc,
		validate:  validator.New(),
		logger:    logger,
	}
}

type transferRequest struct {
	RecipientUserID uint   `json:"recipient_user_id" validate:"required"`
	Amount          string `json:"amount" validate:"required"`
	PIN             string `json:"pin" validate:"required,len=4,numeric"`
	Description     string `json:"description" validate:"max=255"`
}

type externalTransferRequest struct {
	RecipientName          string `json:"recipient_name" validate:"required"`
	RecipientAccountNumber string `json:"recipient_account_number" validate:"required,min=9,max=18,numeric"`
	RecipientIFSC          string `json:"recipient_ifsc" validate:"required,len=11,alphanum"`
	Amount                 string `json:"amount" validate:"required"`
	PIN                    string `json:"pin" validate:"required,len=4,numeric"`
	Description            string `json:"description" validate:"max=255"`
}

type checkBalanceRequest struct {
	AccountID uint   `json:"account_id" validate:"required"`
	PIN       string `json:"pin" validate:"required,len=4,numeric"`
}

func (h *PaymentHandler) userID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

func (h *PaymentHandler) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := h.validate.Struct(out); err != nil {
		return response.BadRequest(c, err.Error())
	}
	return nil
}

func parseAmount(c *fiber.Ctx, s string) (money.Amount, error) {
	amount, err := money.Parse(s)
	if err != nil {
		if errors.Is(err, money.ErrTooPrecise) {
			return 0, response.BadRequest(c, "amount has more than two decimal places")
		}
		return 0, response.BadRequest(c, "malformed amount")
	}
	return amount, nil
}

func (h *PaymentHandler) LinkAccount(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req account.LinkAccountRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	acct, err := h.accounts.LinkAccount(c.Context(), userID, req)
	if err != nil {
		return response.Domain(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "bank account linked",
		"data":    acct,
	})
}

func (h *PaymentHandler) GetAccounts(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}
	accounts, err := h.accounts.GetAccounts(c.Context(), userID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "linked accounts", accounts)
}

func (h *PaymentHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid account id")
	}
	if err := h.accounts.DeleteAccount(c.Context(), userID, uint(accountID)); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "bank account unlinked", nil)
}

func (h *PaymentHandler) SetPrimaryAccount(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid account id")
	}
	if err := h.accounts.SetPrimaryAccount(c.Context(), userID, uint(accountID)); err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "primary account updated", nil)
}

func (h *PaymentHandler) CheckBalance(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req checkBalanceRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}

	balance, err := h.accounts.CheckBalance(c.Context(), userID, req.AccountID, req.PIN)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "balance", fiber.Map{
		"account_id": req.AccountID,
		"balance":    balance,
	})
}

func (h *PaymentHandler) Transfer(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req transferRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	amount, err := parseAmount(c, req.Amount)
	if err != nil {
		return err
	}

	result, err := h.transfers.Transfer(c.Context(), transfer.InternalTransferRequest{
		SenderUserID:    userID,
		RecipientUserID: req.RecipientUserID,
		Amount:          amount,
		PIN:             req.PIN,
		Description:     req.Description,
	})
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "transfer completed", result)
}

func (h *PaymentHandler) TransferExternal(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req externalTransferRequest
	if err := h.parseBody(c, &req); err != nil {
		return err
	}
	amount, err := parseAmount(c, req.Amount)
	if err != nil {
		return err
	}

	result, err := h.transfers.TransferExternal(c.Context(), transfer.ExternalTransferRequest{
		SenderUserID:           userID,
		RecipientName:          req.RecipientName,
		RecipientAccountNumber: req.RecipientAccountNumber,
		RecipientIFSC:          req.RecipientIFSC,
		Amount:                 amount,
		PIN:                    req.PIN,
		Description:            req.Description,
	})
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "transfer completed", result)
}

func (h *PaymentHandler) GetHistory(c *fiber.Ctx) error {
	userID, ok := h.userID(c)
	if !ok {
		return response.Unauthorized(c)
	}
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	history, err := h.ledger.History(c.Context(), userID, limit, offset)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "transaction history", history)
}

func (h *PaymentHandler) GetSupportedBanks(c *fiber.Ctx) error {
	return response.Success(c, "supported banks", h.accounts.SupportedBanks())
}

func (h *PaymentHandler) SearchRecipient(c *fiber.Ctx) error {
	if _, ok := h.userID(c); !ok {
		return response.Unauthorized(c)
	}
	phone := c.Query("phone")
	if phone == "" {
		return response.BadRequest(c, "phone query parameter is required")
	}
	recipient, err := h.accounts.SearchByPhone(c.Context(), phone)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "recipient", recipient)
}

func (h *PaymentHandler) Reconcile(c *fiber.Ctx) error {
	accountID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid account id")
	}
	report, err := h.ledger.Reconcile(c.Context(), uint(accountID))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "reconciliation report", report)
}

func (h *PaymentHandler) ResetMoneyData(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || !claims.IsAdmin() {
		return response.Error(c, fiber.StatusForbidden, "insufficient permissions")
	}
	if err := h.accounts.ResetAllMoneyData(c.Context()); err != nil {
		return response.Domain(c, err)
	}
	h.logger.Warn("money data reset", zap.Uint("admin_user_id", claims.UserID))
	return response.Success(c, "all balances reset to opening values", nil)
}
