package httpclient

import (
	"strconv"
	"time"
)

const defaultMaxPayloadLogBytes = 1024

const (
	logMsgRequest  = "Airtable request"
	logMsgResponse = "Airtable response"
)

func (c *client) logRequest(req *Request, requestID string, attempt int) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL).
		Str("request_id", requestID).
		Int("attempt", attempt)
	if len(req.Header) > 0 {
		event = event.Int("header_count", len(req.Header))
	}
	if len(req.Body) > 0 {
		event = event.Int("body_size", len(req.Body))
	}
	event.Msg(logMsgRequest)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(req.Body)
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", requestID).
		Interface("headers", req.Header).
		Int("body_size", len(req.Body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(logMsgRequest)
}

func (c *client) logResponse(resp *Response, requestID string, attempt int, elapsed time.Duration) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Int("attempt", attempt)
	if len(resp.Body) > 0 {
		event = event.Int("body_size", len(resp.Body))
	}
	event.Msg(logMsgResponse)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.preview(resp.Body)
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", resp.Header).
		Int("body_size", len(resp.Body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(logMsgResponse)
}

func (c *client) preview(body []byte) ([]byte, bool) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = defaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}
