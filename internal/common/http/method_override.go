package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const methodOverrideField = "_method"

// MethodOverrideMiddleware lets HTML forms reach PUT and DELETE handlers by
// posting a _method field. Only POST requests are rewritten.
func MethodOverrideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method := overrideMethod(r); method != "" {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	var raw string
	if IsFormRequest(r) {
		if err := ParseForm(r); err != nil {
			return ""
		}
		raw = r.PostForm.Get(methodOverrideField)
		r.PostForm.Del(methodOverrideField)
		r.Form.Del(methodOverrideField)
	} else if r.Body != nil {
		body, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil || len(body) == 0 {
			return ""
		}
		var envelope struct {
			Method string `json:"_method"`
		}
		if json.Unmarshal(body, &envelope) != nil {
			return ""
		}
		raw = envelope.Method
	}

	switch method := strings.ToUpper(strings.TrimSpace(raw)); method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return method
	default:
		return ""
	}
}
