package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/cfe-receipt-reader/internal/batch"
	"github.com/insightdelivered/cfe-receipt-reader/internal/extractor"
	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
	"github.com/insightdelivered/cfe-receipt-reader/internal/parser"
	"github.com/insightdelivered/cfe-receipt-reader/internal/writer"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// maxUploadBytes bounds one uploaded document.
const maxUploadBytes = 50 << 20

// DocumentAcquirer is the acquisition dependency of the handlers.
// *extractor.Acquirer is the production implementation.
type DocumentAcquirer interface {
	AcquireDocument(ctx context.Context, name string, data []byte, opts extractor.AcquireOptions) (models.DocumentText, error)
	AcquireImage(ctx context.Context, name string, data []byte) (models.DocumentText, error)
}

// ExtractResponse is the JSON response from /api/extract.
type ExtractResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Receipt *models.Receipt `json:"receipt,omitempty"`

	// RawText echoes the acquired text to help diagnose pattern misses.
	RawText string `json:"rawText,omitempty"`
}

// CompareResponse is the JSON response from /api/compare.
type CompareResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	Report  *models.ComparisonReport `json:"report,omitempty"`
	CSV     string                   `json:"csv,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Acquirer  DocumentAcquirer
	Extractor *parser.Extractor
	Log       zerolog.Logger
}

// NewHandler wires the production pipeline behind the routes.
func NewHandler(acq DocumentAcquirer, ext *parser.Extractor, log zerolog.Logger) *Handler {
	if ext == nil {
		ext = parser.NewExtractor(nil)
	}
	return &Handler{Acquirer: acq, Extractor: ext, Log: log}
}

// Register sets up the API routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
	app.Post("/api/compare", h.HandleCompare)
}

// HandleHealth reports service liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleExtract reads one uploaded receipt and returns the structured
// result. Accepts PDF uploads and receipt photos in form field "file".
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return extractError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	data, err := readUpload(header)
	if err != nil {
		return extractError(c, fiber.StatusBadRequest, err.Error())
	}

	var doc models.DocumentText
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		doc, err = h.Acquirer.AcquireDocument(c.Context(), header.Filename, data, extractor.AcquireOptions{})
	case ".png", ".jpg", ".jpeg", ".gif":
		doc, err = h.Acquirer.AcquireImage(c.Context(), header.Filename, data)
	default:
		return extractError(c, fiber.StatusBadRequest, "Only PDF and image files are supported.")
	}
	if err != nil {
		return extractError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	receipt := h.Extractor.ReadReceipt(doc)
	h.Log.Info().Str("document", header.Filename).Int("kwh", receipt.KWh).Msg("receipt extracted")
	return c.JSON(ExtractResponse{Success: true, Receipt: &receipt, RawText: doc.Full()})
}

// HandleCompare processes a batch of receipts uploaded in form field
// "files" and returns the comparison report plus its CSV rendering.
func (h *Handler) HandleCompare(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return compareError(c, fiber.StatusBadRequest, "Expected a multipart form with field 'files'.")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return compareError(c, fiber.StatusBadRequest, "No files uploaded. Use form field 'files'.")
	}

	inputs := make([]batch.Input, 0, len(headers))
	for _, header := range headers {
		header := header
		inputs = append(inputs, batch.Input{
			Name: header.Filename,
			Acquire: func(ctx context.Context) (models.DocumentText, error) {
				data, err := readUpload(header)
				if err != nil {
					return models.DocumentText{}, err
				}
				return h.Acquirer.AcquireDocument(ctx, header.Filename, data, extractor.AcquireOptions{BatchMode: true})
			},
		})
	}

	session, err := batch.NewSession(h.Extractor, inputs, h.Log)
	if err != nil {
		return compareError(c, fiber.StatusBadRequest, err.Error())
	}
	receipts, err := session.Run(c.Context())
	if err != nil {
		return compareError(c, fiber.StatusInternalServerError, err.Error())
	}

	report := batch.Aggregate(receipts)

	var csvBuf bytes.Buffer
	w := &writer.CSVWriter{}
	if err := w.Write(&csvBuf, &report); err != nil {
		return compareError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	return c.JSON(CompareResponse{Success: true, Report: &report, CSV: csvBuf.String()})
}

// readUpload loads one multipart file into memory, enforcing size bounds.
func readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size == 0 {
		return nil, fmt.Errorf("%s is empty", header.Filename)
	}
	if header.Size > maxUploadBytes {
		return nil, fmt.Errorf("%s exceeds the %dMB upload limit", header.Filename, maxUploadBytes>>20)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
	}
	return data, nil
}

func extractError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{Success: false, Error: msg})
}

func compareError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(CompareResponse{Success: false, Error: msg})
}
