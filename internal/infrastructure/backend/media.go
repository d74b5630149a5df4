package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/contactbook/contacts-gateway/internal/core/domain"
	"github.com/contactbook/contacts-gateway/internal/core/ports"
)

// UploadMedia sends file to the media endpoint as multipart field "files"
// and returns the reference of the stored file. A 2xx answer without a usable
// id yields domain.ErrNoMediaID.
func (c *Client) UploadMedia(ctx context.Context, file ports.Upload) (domain.MediaRef, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Filename))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("upload: %w", err)
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return domain.MediaRef{}, fmt.Errorf("upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return domain.MediaRef{}, fmt.Errorf("upload: %w", err)
	}

	status, body, err := c.do(ctx, request{
		op:          "upload",
		method:      http.MethodPost,
		path:        "/api/upload",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return domain.MediaRef{}, err
	}
	if status < 200 || status > 299 {
		return domain.MediaRef{}, upstreamError("upload", status, body)
	}

	ref, err := ParseMediaRef(body)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("upload: %w", err)
	}
	ref.URL = c.resolveURL(ref.URL)
	return ref, nil
}

type mediaEntry struct {
	ID         json.Number `json:"id"`
	URL        string      `json:"url"`
	Attributes *struct {
		ID  json.Number `json:"id"`
		URL string      `json:"url"`
	} `json:"attributes"`
}

// ParseMediaRef normalizes the shapes the backend uses for media: a bare
// array of entries, {"data": [...]}, {"data": {...}} or a single entry.
// The first entry's id is used, falling back to attributes.id. A null "data"
// falls back to the envelope itself.
func ParseMediaRef(raw []byte) (domain.MediaRef, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return domain.MediaRef{}, domain.ErrNoMediaID
	}

	if raw[0] == '{' {
		var env map[string]json.RawMessage
		if err := decodeNumbers(raw, &env); err != nil {
			return domain.MediaRef{}, fmt.Errorf("decode media: %w", err)
		}
		if data, ok := env["data"]; ok && !isNull(data) {
			return ParseMediaRef(data)
		}
	}

	var entry mediaEntry
	if raw[0] == '[' {
		var entries []mediaEntry
		if err := decodeNumbers(raw, &entries); err != nil {
			return domain.MediaRef{}, fmt.Errorf("decode media: %w", err)
		}
		if len(entries) == 0 {
			return domain.MediaRef{}, domain.ErrNoMediaID
		}
		entry = entries[0]
	} else if err := decodeNumbers(raw, &entry); err != nil {
		return domain.MediaRef{}, fmt.Errorf("decode media: %w", err)
	}

	id, url := entry.ID, entry.URL
	if entry.Attributes != nil {
		if id == "" {
			id = entry.Attributes.ID
		}
		if url == "" {
			url = entry.Attributes.URL
		}
	}
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil || n <= 0 {
		return domain.MediaRef{}, domain.ErrNoMediaID
	}
	return domain.MediaRef{ID: n, URL: url}, nil
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// relationID extracts the id of a to-one relation in either the flat
// {"id": 1} or the wrapped {"data": {"id": 1}} shape. It returns 0 when the
// relation is absent.
func relationID(raw json.RawMessage) int64 {
	if len(raw) == 0 || isNull(raw) {
		return 0
	}
	var rel struct {
		ID   int64           `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &rel); err != nil {
		return 0
	}
	if rel.ID != 0 {
		return rel.ID
	}
	if len(rel.Data) > 0 {
		return relationID(rel.Data)
	}
	return 0
}

func isNull(raw []byte) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
