package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/planwise/backend/api/transport"
	"github.com/planwise/backend/internal/middleware"
	"github.com/planwise/backend/pkg/httpcontext"
	"github.com/planwise/backend/usecase"
)

// OpsHandler exposes the whole operation surface through a single dispatch
// route. The operation name selects a registered handler; whether the JWT
// middleware runs is decided per operation from the registry, not hardcoded
// per route.
type OpsHandler struct {
	baseHandler
	dispatcher *usecase.Dispatcher
	protected  fasthttp.RequestHandler
}

func NewOpsHandler(
	dispatcher *usecase.Dispatcher,
	authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *OpsHandler {
	h := &OpsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		dispatcher:  dispatcher,
	}
	if authMiddleware != nil {
		h.protected = authMiddleware(h.run)
	} else {
		h.protected = h.run
	}
	return h
}

// Dispatch resolves the operation named in the route and routes the request
// through the auth wrapper when the registry requires it.
func (h *OpsHandler) Dispatch(ctx *fasthttp.RequestCtx) {
	op, _ := ctx.UserValue("op").(string)
	requiresAuth, ok := h.dispatcher.RequiresAuth(op)
	if !ok {
		h.respondJSON(ctx, http.StatusNotFound,
			transport.NewError("UNKNOWN_OPERATION", "operation not registered", map[string]string{"op": op}))
		return
	}

	if requiresAuth {
		h.protected(ctx)
		return
	}
	h.run(ctx)
}

func (h *OpsHandler) run(ctx *fasthttp.RequestCtx) {
	op, _ := ctx.UserValue("op").(string)
	userID, _ := ctx.UserValue(middleware.UserIDKey).(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatcher.Execute(stdCtx, op, userID, ctx.PostBody())
	if err != nil {
		h.logger.Warn("operation failed",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.Error(err))
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, result)
}
