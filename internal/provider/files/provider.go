package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/exp/slices"
	"io"
	"log/slog"
	"magal/internal/api"
	"magal/internal/provider"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultMaxImageSize int64 = 5 << 20

	// NewEvent is the event id used for images uploaded before the event exists.
	NewEvent = "new"

	pathUpload = "/images/evenements/upload"
	pathDelete = "/images/evenements/delete"
)

var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrUnsupportedType = errors.New("unsupported format, use JPG, PNG or WebP")
	ErrTooLarge        = errors.New("file too large")
)

type Provider interface {
	ValidateImage(name string, data []byte) error
	UploadEventImage(ctx context.Context, name string, r io.Reader, eventID string) (string, error)
	DeleteEventImage(ctx context.Context, imageURL string)
	ImageURL(path string) string
}

type filesProvider struct {
	client    provider.Client
	assetBase string
	maxSize   int64
	log       *slog.Logger
}

// NewFilesProvider returns a provider resolving relative image paths
// against assetBase. A maxSize of 0 means DefaultMaxImageSize.
func NewFilesProvider(client provider.Client, assetBase string, maxSize int64, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &filesProvider{
		client:    client,
		assetBase: strings.TrimRight(assetBase, "/"),
		maxSize:   maxSize,
		log:       log,
	}
}

// ValidateImage checks the sniffed content type and the size. Both
// problems are reported together.
func (p *filesProvider) ValidateImage(name string, data []byte) error {
	var errs []error

	m := mimetype.Detect(data)
	if !slices.ContainsFunc(AllowedImageTypes, m.Is) {
		errs = append(errs, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, name, m.String()))
	}

	if int64(len(data)) > p.maxSize {
		errs = append(errs, fmt.Errorf("%w: maximum %s", ErrTooLarge, FormatSize(p.maxSize)))
	}

	return errors.Join(errs...)
}

func (p *filesProvider) UploadEventImage(ctx context.Context, name string, r io.Reader, eventID string) (string, error) {
	const op = "files.UploadEventImage"

	if eventID == "" {
		eventID = NewEvent
	}

	// Читаем не больше лимита + 1 байт, чтобы поймать слишком большой файл
	data, err := io.ReadAll(io.LimitReader(r, p.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("%s: read %s: %w", op, name, err)
	}

	if err := p.ValidateImage(name, data); err != nil {
		p.log.Warn("image rejected before upload",
			slog.String("name", name),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	body, contentType, err := multipartBody(name, data, eventID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := p.client.Do(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    pathUpload,
		RawBody: body,
		Header:  http.Header{"Content-Type": {contentType}},
	})
	if err != nil {
		p.log.Error("image upload failed",
			slog.String("name", name),
			slog.String("error", err.Error()))
		if apiErr, ok := api.AsError(err); ok && apiErr.Kind == api.KindValidation {
			if msg := apiErr.FirstFieldError(); msg != "" {
				return "", fmt.Errorf("%s: %s: %w", op, msg, err)
			}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var out struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, provider.ErrMalformedResponse, err)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("%s: %w: missing data.url", op, provider.ErrMalformedResponse)
	}

	p.log.Info("image uploaded",
		slog.String("name", name),
		slog.String("event_id", eventID),
		slog.Int("bytes", len(data)))

	return out.Data.URL, nil
}

// DeleteEventImage asks the server to remove an image. Failures are logged
// and otherwise ignored.
func (p *filesProvider) DeleteEventImage(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}

	body := map[string]string{"image_url": imageURL}
	if err := p.client.Delete(ctx, pathDelete, body, nil); err != nil {
		p.log.Warn("image delete failed",
			slog.String("image_url", imageURL),
			slog.String("error", err.Error()))
	}
}

// ImageURL returns absolute URLs unchanged and resolves relative ones
// against the asset base.
func (p *filesProvider) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.assetBase + path
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with at most two decimals.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)

	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

func multipartBody(name string, data []byte, eventID string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(name)))
	h.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := w.WriteField("evenement_id", eventID); err != nil {
		return nil, "", fmt.Errorf("write evenement_id: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
