package http

import (
	"net/http"

	"github.com/AlibekovAA/storybooks/internal/common/crypto"
)

// PathID extracts the {id} wildcard and returns it in canonical UUID form.
func PathID(r *http.Request) (string, error) {
	return crypto.NormalizeID(r.PathValue("id"))
}
