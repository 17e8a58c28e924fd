package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"storebench/config"
	"storebench/identity"
)

// WebHDFSStore transfers against a WebHDFS REST endpoint such as
// https://<account>.azuredatalakestore.net/webhdfs/v1.
type WebHDFSStore struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewWebHDFSStore returns a store rooted at endpoint. Unless cred is anonymous
// every request carries its token as an Authorization header.
func NewWebHDFSStore(endpoint string, base *http.Client, cred identity.Credential) *WebHDFSStore {
	if base == nil {
		base = http.DefaultClient
	}
	client := base
	if cred.Type != "none" && cred.Token != "" {
		client = &http.Client{
			Transport: &oauth2.Transport{
				Source: cred.TokenSource(),
				Base:   base.Transport,
			},
			Timeout: base.Timeout,
		}
	}
	return &WebHDFSStore{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		log:      log.With().Str("component", "store").Str("backend", config.BackendWebHDFS).Logger(),
	}
}

type contentSummary struct {
	ContentSummary struct {
		Length int64 `json:"length"`
	} `json:"ContentSummary"`
}

type remoteException struct {
	RemoteException struct {
		Exception string `json:"exception"`
		Message   string `json:"message"`
	} `json:"RemoteException"`
}

func (s *WebHDFSStore) ContentLength(ctx context.Context, path string) (uint64, error) {
	resp, err := s.do(ctx, http.MethodGet, path, "GETCONTENTSUMMARY", nil, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var summary contentSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return 0, fmt.Errorf("decode content summary %s: %w", path, err)
	}
	if summary.ContentSummary.Length < 0 {
		return 0, fmt.Errorf("content summary %s: negative length", path)
	}
	return uint64(summary.ContentSummary.Length), nil
}

func (s *WebHDFSStore) OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error) {
	if length == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	q := url.Values{}
	q.Set("read", "true")
	q.Set("offset", strconv.FormatUint(offset, 10))
	q.Set("length", strconv.FormatUint(length, 10))
	resp, err := s.do(ctx, http.MethodGet, path, "OPEN", q, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// SegmentedUpload creates the file with the first segment and appends the
// rest in order, one request per segment.
func (s *WebHDFSStore) SegmentedUpload(ctx context.Context, localPath, remotePath string, params UploadParams, progress ProgressFunc) error {
	size, err := fileSize(localPath)
	if err != nil {
		return err
	}
	if params.MaxSegmentSize == 0 {
		return fmt.Errorf("segmented upload: zero segment size")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	segments := SegmentCount(size, params.MaxSegmentSize)
	tracker := newProgressTracker(progress, size, segments)
	buf := make([]byte, uploadChunkSize(size, params.MaxSegmentSize))

	var offset uint64
	for first := true; first || offset < size; first = false {
		n, rerr := io.ReadFull(f, buf)
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			return fmt.Errorf("read %s: %w", localPath, rerr)
		}

		var resp *http.Response
		if first {
			q := url.Values{}
			q.Set("write", "true")
			q.Set("overwrite", strconv.FormatBool(params.Overwrite))
			resp, err = s.do(ctx, http.MethodPut, remotePath, "CREATE", q, buf[:n])
		} else {
			q := url.Values{}
			q.Set("append", "true")
			q.Set("offset", strconv.FormatUint(offset, 10))
			resp, err = s.do(ctx, http.MethodPost, remotePath, "APPEND", q, buf[:n])
		}
		if err != nil {
			return err
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		offset += uint64(n)
		tracker.add(uint64(n))
		if n == 0 {
			break
		}
	}

	tracker.finish()
	s.log.Debug().Str("path", remotePath).Uint64("size", size).Int("segments", segments).Msg("upload complete")
	return nil
}

func (s *WebHDFSStore) Remove(ctx context.Context, path string) error {
	resp, err := s.do(ctx, http.MethodDelete, path, "DELETE", nil, nil)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (s *WebHDFSStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *WebHDFSStore) url(path, op string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("op", op)
	return s.endpoint + "/" + strings.TrimLeft(path, "/") + "?" + q.Encode()
}

// do sends one request and returns the response when the status is 2xx.
// Any other status is drained and returned as a *StatusError.
func (s *WebHDFSStore) do(ctx context.Context, method, path, op string, q url.Values, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url(path, op, q), reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	statusErr := &StatusError{Op: op + " " + path, Code: resp.StatusCode}
	var remote remoteException
	if data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); len(data) > 0 {
		if json.Unmarshal(data, &remote) == nil {
			statusErr.Exception = remote.RemoteException.Exception
			statusErr.Message = remote.RemoteException.Message
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, statusErr)
	}
	return nil, statusErr
}
