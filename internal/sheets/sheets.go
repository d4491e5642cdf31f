// Package sheets logs generated cover letters to a Google Apps Script
// webhook that appends them to a spreadsheet.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
	"fluxcareer/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
)

// DefaultSheetName is used when no sheet is configured
const DefaultSheetName = "Sheet1"

const missingURLMessage = "Please configure Google Apps Script URL in settings"

// Client posts rows to the webhook
type Client struct {
	httpClient *http.Client
	logger     *errors.Logger
}

// NewClient creates a client whose calls are bounded by timeout
func NewClient(timeout time.Duration, logger *errors.Logger) *Client {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Sender is the identity recorded with each row
type Sender struct {
	Name  string
	Email string
}

// BuildPayload assembles the row for a generated cover letter. The
// recipient email is extracted from the job description when present.
func BuildPayload(jobDescription, coverLetter string, sender Sender, sheetName string, now time.Time) types.SheetPayload {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	email, _ := utils.ExtractEmail(jobDescription)
	return types.SheetPayload{
		Timestamp:      now.UTC().Format(time.RFC3339),
		JobDescription: jobDescription,
		CoverLetter:    coverLetter,
		ExtractedEmail: email,
		SenderName:     sender.Name,
		SenderEmail:    sender.Email,
		SheetName:      sheetName,
	}
}

// Send posts payload to scriptURL.
//
// With an access token the request is authenticated JSON and a non-2xx
// status is an error. Without one the body goes out as text/plain, which
// Apps Script accepts anonymously, and the response is not inspected.
func (c *Client) Send(ctx context.Context, payload types.SheetPayload, scriptURL, accessToken string) error {
	if scriptURL == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, missingURLMessage, nil)
	}

	authenticated := accessToken != ""
	ctx, span := otel.Tracer("fluxcareer.sheets").Start(ctx, "sheets.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("sheets.sheet_name", payload.SheetName),
		attribute.Bool("sheets.authenticated", authenticated),
	)

	c.logger.Debug("Sending row to spreadsheet",
		"sheet_name", payload.SheetName,
		"authenticated", authenticated)

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeSheetsFailed, "failed to encode sheet payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, scriptURL, bytes.NewReader(body))
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid Google Apps Script URL", err)
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return errors.NewNetworkError(errors.ErrCodeSheetsFailed, "failed to reach Google Apps Script",
			errors.RedactError(err, accessToken))
	}
	defer func() { _ = resp.Body.Close() }()

	if !authenticated {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err := googleapi.CheckResponse(resp); err != nil {
		span.RecordError(err)
		appErr := errors.NewNetworkError(errors.ErrCodeSheetsFailed, "Google Apps Script rejected the request", err)
		if gErr, ok := err.(*googleapi.Error); ok {
			appErr = appErr.WithContext("status_code", gErr.Code)
			if gErr.Message != "" {
				appErr.Message = "Google Apps Script rejected the request: " + gErr.Message
			}
		}
		return appErr
	}
	return nil
}
