package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	dto "task-manager.com/task-manager/internal/data_models"
)

const sniffLen = 512

// readFields returns the body values that were present, whatever the
// encoding, and the keys whose JSON value was not a string. A JSON null is
// read as an empty value.
func readFields(c echo.Context) (map[string]string, map[string]bool, error) {
	req := c.Request()
	ctype := req.Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return readJSONFields(req.Body)
	}

	if req.ContentLength == 0 && ctype == "" {
		return map[string]string{}, nil, nil
	}

	params, err := c.FormParams()
	if err != nil {
		return nil, nil, err
	}

	fields := make(map[string]string, len(params))
	for key, values := range params {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil, nil
}

func readJSONFields(body io.Reader) (map[string]string, map[string]bool, error) {
	raw := map[string]interface{}{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	fields := make(map[string]string, len(raw))
	nonString := map[string]bool{}
	for key, v := range raw {
		switch val := v.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = val
		case float64:
			fields[key] = strconv.FormatFloat(val, 'f', -1, 64)
			nonString[key] = true
		case bool:
			fields[key] = strconv.FormatBool(val)
			nonString[key] = true
		default:
			fields[key] = fmt.Sprint(val)
			nonString[key] = true
		}
	}
	return fields, nonString, nil
}

// readTaskRequest parses the body and any uploaded "file" part.
func readTaskRequest(c echo.Context) (dto.TaskRequest, error) {
	fields, nonString, err := readFields(c)
	if err != nil {
		return dto.TaskRequest{}, err
	}

	req := dto.FromFields(fields)
	req.NonString = nonString

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return dto.TaskRequest{}, err
		default:
			upload, err := newUpload(fh)
			if err != nil {
				return dto.TaskRequest{}, err
			}
			req.Upload = upload
			req.FileValue = nil
		}
	}

	return req, nil
}

func newUpload(fh *multipart.FileHeader) (*dto.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	return &dto.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: http.DetectContentType(head[:n]),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

// parseID accepts positive integers only.
func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
