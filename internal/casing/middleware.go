package casing

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// Normalize rewrites query keys and JSON request bodies to camelCase before
// handlers see them. Query parameters keep their wire order, so when a key is
// sent in both spellings the first one is what c.Query returns. Bodies that
// are not valid JSON are left untouched so the handler reports the parse error
// itself.
func Normalize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if uri := c.Request().URI(); len(uri.QueryString()) > 0 {
			uri.SetQueryString(camelizeQuery(uri.QueryArgs()))
		}

		if isJSON(c) {
			if body := c.Body(); len(bytes.TrimSpace(body)) > 0 {
				if out, ok := camelizeBody(body); ok {
					c.Request().SetBody(out)
				}
			}
		}

		return c.Next()
	}
}

func camelizeQuery(args *fasthttp.Args) string {
	var b strings.Builder
	args.VisitAll(func(k, v []byte) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(ToCamel(string(k))))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(string(v)))
	})
	return b.String()
}

func isJSON(c *fiber.Ctx) bool {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	return strings.HasPrefix(ct, fiber.MIMEApplicationJSON)
}

func camelizeBody(body []byte) ([]byte, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, false
	}
	out, err := json.Marshal(KeysToCamel(tree))
	if err != nil {
		return nil, false
	}
	return out, true
}

// ToWire marshals a handler payload and rewrites its keys to snake_case.
func ToWire(payload any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	return KeysToSnake(tree), nil
}
