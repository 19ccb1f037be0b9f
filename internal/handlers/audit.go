package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"nomorewaste/internal/models"
)

const auditPageSize = 50

type AuditReader interface {
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	logs AuditReader
}

func NewAuditHandler(logs AuditReader) *AuditHandler {
	return &AuditHandler{logs: logs}
}

func (h *AuditHandler) List(c echo.Context) error {
	logs, err := h.logs.ListAuditLogs(c.Request().Context(), auditPageSize)
	if err != nil {
		slog.Error("failed to fetch audit logs", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to fetch audit logs",
			"logs":  []models.AuditLog{},
		})
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"logs":    logs,
	})
}
