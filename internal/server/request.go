package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
)

// GraphQLRequest is one operation as sent over HTTP or in a websocket
// subscribe payload.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError rejects a request before any operation runs.
type requestError struct {
	status  int
	message string
}

func badRequest(message string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// isMutation reports whether req selects a mutation. Documents that do not
// parse are left to the normal error path.
func isMutation(req GraphQLRequest) bool {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return false
	}
	op := doc.Operations.ForName(req.OperationName)
	return op != nil && op.Operation == language.Mutation
}

// readRequest extracts the operations of r. GET carries one operation in
// the URL and may not select a mutation. POST accepts application/json (a
// single object or a batch array) and application/graphql (the query text
// as the body); gzip encoded bodies are inflated. batched reports whether
// the body was an array.
func readRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (reqs []GraphQLRequest, batched bool, rerr *requestError) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req := GraphQLRequest{Query: q.Get("query"), OperationName: q.Get("operationName")}
		if v := q.Get("variables"); v != "" {
			if err := decodeJSON([]byte(v), &req.Variables); err != nil {
				return nil, false, badRequest("invalid 'variables' JSON")
			}
		}
		if req.Query == "" {
			return nil, false, badRequest("missing 'query'")
		}
		if isMutation(req) {
			w.Header().Set("Allow", http.MethodPost)
			return nil, false, &requestError{status: http.StatusMethodNotAllowed, message: "mutations are not allowed over GET"}
		}
		return []GraphQLRequest{req}, false, nil
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return nil, false, badRequest("unable to parse media type")
		}
	}

	body, rerr := readBody(w, r, maxBody)
	if rerr != nil {
		return nil, false, rerr
	}

	switch mediaType {
	case "application/graphql":
		if len(body) == 0 {
			return nil, false, badRequest("missing 'query'")
		}
		return []GraphQLRequest{{Query: string(body)}}, false, nil
	case "application/json":
	default:
		return nil, false, badRequest("unsupported Content-Type")
	}

	if len(body) > 0 && body[0] == '[' {
		if err := decodeJSON(body, &reqs); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		if len(reqs) == 0 {
			return nil, false, badRequest("empty batch")
		}
		batched = true
	} else {
		var req GraphQLRequest
		if err := decodeJSON(body, &req); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		reqs = []GraphQLRequest{req}
	}
	for _, req := range reqs {
		if req.Query == "" {
			return nil, false, badRequest("missing 'query'")
		}
	}
	return reqs, batched, nil
}

func readBody(w http.ResponseWriter, r *http.Request, maxBody int64) ([]byte, *requestError) {
	defer r.Body.Close()
	var body io.Reader = r.Body
	if maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, badRequest("unable to parse gzip")
		}
		defer zr.Close()
		body = zr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return nil, badRequest("failed to read body")
	}
	return bytes.TrimSpace(data), nil
}

// decodeJSON keeps numbers as json.Number so integer variables are not
// routed through float64.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

type errorBody struct {
	Errors executor.Errors `json:"errors"`
}

func errorResponse(message string) errorBody {
	return errorBody{Errors: executor.Errors{{Message: message}}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
