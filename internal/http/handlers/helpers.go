package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetBody(body)
}

// RequestLogger returns fasthttp middleware that tags each request with
// an ID and logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx.Response.Header.Set("X-Request-ID", reqID)
		next(ctx)
		log.Printf("%s %s -> %d (%s) id=%s ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), reqID, ctx.RemoteAddr())
	}
}

// CORS returns middleware that lets the separately-served frontend call
// the API from any origin, matching the original deployment shape.
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type")
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}
		next(ctx)
	}
}
