package pipeline

import (
	"fmt"

	"github.com/forgeline-io/forge/pkg/forge"
)

// tokenGuidance replaces the raw 401 body: echoing the server's own message
// is less useful than telling the caller what to do about it.
const tokenGuidance = "token is invalid or expired; generate a new personal access token and update the connection"

// Classify decides the fatality of a normalized response. With strict
// disabled the envelope is returned as-is and callers branch on its Status
// booleans; with strict enabled every non-2xx status maps to a typed error
// kind. The returned envelope is always the input envelope, so callers can
// inspect it alongside the error, in either mode.
func Classify(env *forge.Envelope, method, requestURL string, strict bool) error {
	if env.Status.Successful {
		return nil
	}

	if !strict {
		return nil
	}

	message := serverMessage(env.Data)
	if env.Status.Code == 401 {
		message = tokenGuidance
	}

	return &forge.Error{
		Kind:    forge.KindForStatus(env.Status.Code),
		Method:  method,
		Code:    env.Status.Code,
		URL:     requestURL,
		Message: message,
	}
}

// serverMessage digs the human-readable message out of a decoded error body.
// APIs of this family use either {"message": ...} or {"error": ...}, with
// the value sometimes a string and sometimes a structured object.
func serverMessage(data any) string {
	body, ok := data.(map[string]any)
	if !ok {
		return ""
	}

	for _, key := range []string{"message", "error"} {
		value, present := body[key]
		if !present {
			continue
		}

		if text, isString := value.(string); isString {
			return text
		}

		return fmt.Sprintf("%v", value)
	}

	return ""
}
