package pipeline

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/forgeline-io/forge/pkg/forge"
)

// nextPageURL extracts the rel="next" cursor from a Link header. The cursor
// is an opaque, fully qualified URL; an empty string is the terminal state.
func nextPageURL(headers http.Header) string {
	for _, raw := range headers.Values("Link") {
		for _, entry := range strings.Split(raw, ",") {
			target, rel := parseLinkEntry(entry)
			if rel == "next" {
				return target
			}
		}
	}

	return ""
}

// parseLinkEntry splits one `<url>; rel="next"` element into its parts.
func parseLinkEntry(entry string) (target, rel string) {
	parts := strings.Split(entry, ";")

	target = strings.TrimSpace(parts[0])
	if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
		return "", ""
	}

	target = strings.Trim(target, "<>")

	for _, param := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if found && strings.EqualFold(strings.TrimSpace(key), "rel") {
			rel = strings.Trim(strings.TrimSpace(value), `"`)
		}
	}

	return target, rel
}

// appendRecords flattens a page's data one level into the accumulator,
// preserving response order. Non-list pages contribute a single record.
func appendRecords(accumulator []any, data any) []any {
	if data == nil {
		return accumulator
	}

	if list, ok := data.([]any); ok {
		return append(accumulator, list...)
	}

	return append(accumulator, data)
}

// pageIterator walks a paginated GET one physical page at a time. Two
// states: fetching (another page is known to exist) and done (the last
// response carried no cursor). A cursor is consumed exactly once, so no
// page is ever fetched twice.
type pageIterator struct {
	ctx     context.Context
	exec    *Executor
	conn    *forge.Connection
	path    string
	query   url.Values
	cursor  string
	started bool
	done    bool
}

// HasNext reports whether another physical page can be fetched.
func (it *pageIterator) HasNext() bool {
	return !it.done
}

// Next fetches the next page through the full normalize/guard/classify
// pipeline and advances the cursor.
func (it *pageIterator) Next() (*forge.Envelope, error) {
	if it.done {
		return nil, forge.ErrNoMorePages
	}

	if it.conn == nil {
		conn, err := ResolveConnection(it.exec.config.Connection)
		if err != nil {
			it.done = true

			return nil, err
		}

		it.conn = conn
	}

	var (
		env *forge.Envelope
		err error
	)

	if !it.started {
		it.started = true
		env, err = it.exec.fetchFirstPage(it.ctx, it.conn, it.path, it.query)
	} else {
		// The cursor URL is fully qualified; no query re-merging.
		env, err = it.exec.fetchPage(it.ctx, it.conn, it.cursor)
	}

	if err != nil {
		it.done = true

		return env, err
	}

	if env.Status.Failed {
		it.done = true

		return env, nil
	}

	it.cursor = nextPageURL(env.Headers)
	if it.cursor == "" {
		it.done = true
	}

	return env, nil
}

// All drains the remaining pages into one merged envelope, flattening each
// page's records in server order.
func (it *pageIterator) All() (*forge.Envelope, error) {
	var (
		records []any
		last    *forge.Envelope
		pages   int
	)

	for it.HasNext() {
		env, err := it.Next()
		if err != nil {
			return env, err
		}

		last = env
		pages++

		if env.Status.Failed {
			break
		}

		records = appendRecords(records, env.Data)
	}

	if pages == 0 {
		return nil, forge.ErrNoMorePages
	}

	// A lone page keeps its original shape: an object stays an object and
	// a failed response surfaces untouched for Status inspection.
	if pages == 1 {
		return last, nil
	}

	if last.Status.Failed {
		return last, nil
	}

	return NormalizePages(records, last), nil
}
