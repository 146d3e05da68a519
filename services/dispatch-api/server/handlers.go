package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abnp-academy/campaign-dispatch/internal/campaign"
	"github.com/abnp-academy/campaign-dispatch/internal/dispatch"
	"github.com/abnp-academy/campaign-dispatch/internal/mailer"
	"github.com/abnp-academy/campaign-dispatch/pkg/logx"
)

type dispatcherAPI interface {
	Dispatch(ctx context.Context, campaignID string) (campaign.Result, error)
}

type Handlers struct {
	Engine dispatcherAPI
	Mailer mailer.Sender
}

func NewHandlers(engine dispatcherAPI, snd mailer.Sender) *Handlers {
	return &Handlers{Engine: engine, Mailer: snd}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// SendCampaign triggers the dispatch pipeline for one campaign id. All
// operation failures come back as 500 with an error string; per-recipient
// send failures are only ever visible as error_count.
func (h *Handlers) SendCampaign(c *gin.Context) {
	var req campaign.SendCampaignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Engine.Dispatch(c.Request.Context(), req.CampaignID)
	if err != nil {
		logx.L().Errorw("dispatch_error", "campaign_id", req.CampaignID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": publicError(err)})
		return
	}

	c.JSON(http.StatusOK, campaign.SendCampaignResp{
		Success:    true,
		SentCount:  res.Sent,
		ErrorCount: res.Failed,
	})
}

func (h *Handlers) SendWelcomeEmail(c *gin.Context) {
	var req campaign.SendWelcomeEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	html, err := mailer.RenderWelcome(req.Email, req.DisplayName, req.TempPassword, req.Role)
	if err != nil {
		logx.L().Errorw("welcome_render_error", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render error"})
		return
	}

	err = h.Mailer.Send(c.Request.Context(), mailer.Message{
		To:      req.Email,
		Subject: "Bem-vindo à Academia Brasileira de Neurociência Política!",
		HTML:    html,
	})
	if err != nil {
		logx.L().Errorw("welcome_send_error", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": publicError(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// publicError keeps transport internals out of responses while preserving
// the pipeline's own error classes.
func publicError(err error) string {
	switch {
	case errors.Is(err, dispatch.ErrNotFound):
		return "campaign not found"
	case errors.Is(err, dispatch.ErrInvalidState):
		return "only draft campaigns can be sent"
	}
	var resErr *dispatch.ResolutionError
	if errors.As(err, &resErr) {
		return "failed to resolve recipients"
	}
	return "internal error"
}
