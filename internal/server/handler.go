package server

import (
	"net/http"

	"fluxcareer/internal/common"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/observability"
	"fluxcareer/internal/sheets"
	"fluxcareer/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fluxcareer.api"

func (s *Server) startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := s.obs.Tracer(tracerName).Start(r.Context(), name)
	return r.WithContext(ctx), span
}

func failSpan(span trace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, errors.UserMessage(err))
	span.SetAttributes(attribute.String("error.type", kind))
}

func (s *Server) coverLetterHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.cover_letter")
	defer span.End()

	var req CoverLetterRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	st := s.snapshot()
	user := st.cfg.User
	tone, length, language, err := common.CoverLetterOptions{
		Tone: req.Tone, Length: req.Length, Language: req.Language,
	}.Resolve(common.CoverLetterOptions{Tone: user.Tone, Length: user.Length, Language: user.Language})
	if err != nil {
		failSpan(span, err, "validation")
		writeAppError(w, "Invalid cover letter options", err)
		return
	}

	userName := req.UserName
	if userName == "" {
		userName = user.Name
	}

	span.SetAttributes(
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Bool("request.has_resume", req.ResumeText != ""),
		attribute.String("operation", "cover_letter"),
	)

	out, err := st.service.GenerateCoverLetter(r.Context(), types.CoverLetterInput{
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
		UserName:       userName,
		Tone:           tone,
		Length:         length,
		Language:       language,
	}, req.Selection)
	if err != nil {
		failSpan(span, err, "ai_processing")
		writeAppError(w, "Failed to generate cover letter", err)
		return
	}

	span.SetAttributes(attribute.Int("response.content_length", len(out.Content)))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) interviewHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.interview")
	defer span.End()

	var req InterviewRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	out, err := s.snapshot().service.GenerateInterviewQuestions(r.Context(),
		types.InterviewInput{JobDescription: req.JobDescription}, req.Selection)
	if err != nil {
		failSpan(span, err, "ai_processing")
		writeAppError(w, "Failed to generate interview questions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) tailorHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.tailor")
	defer span.End()

	var req TailorRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	st := s.snapshot()
	userName := req.UserName
	if userName == "" {
		userName = st.cfg.User.Name
	}

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.String("operation", "tailor"),
	)

	out, err := st.service.GenerateTailoredResume(r.Context(), types.TailorInput{
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
	}, userName, req.Selection)
	if err != nil {
		failSpan(span, err, "ai_processing")
		writeAppError(w, "Failed to tailor resume", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.chat")
	defer span.End()

	var req ChatRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	docType := types.DocumentCoverLetter
	if req.DocumentType != "" {
		parsed, ok := types.ParseDocumentType(req.DocumentType)
		if !ok {
			writeErrorResponse(w, "Invalid document type",
				"documentType must be \"Cover Letter\" or \"Tailored Resume\"", http.StatusBadRequest)
			return
		}
		docType = parsed
	}

	span.SetAttributes(
		attribute.Bool("request.has_session", req.SessionID != ""),
		attribute.Int("request.document_length", len(req.CurrentDocument)),
		attribute.String("operation", "chat"),
	)

	st := s.snapshot()
	out, err := common.RunChatTurn(r.Context(), st.service, s.stores.Sessions, common.ChatTurnRequest{
		SessionID: req.SessionID,
		Messages:  req.Messages,
		Message:   req.Message,
		Context: types.ChatContext{
			JobDescription:  req.JobDescription,
			ResumeText:      req.ResumeText,
			CurrentDocument: req.CurrentDocument,
			DocumentType:    docType,
		},
		Selection: req.Selection,
	}, s.now)
	if err != nil {
		failSpan(span, err, "ai_processing")
		writeAppError(w, "Chat request failed", err)
		return
	}

	span.SetAttributes(attribute.Bool("response.has_document", out.Parsed.HasDocument))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sheetsHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.sheets")
	defer span.End()

	var req SheetsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	cfg := s.snapshot().cfg
	sender := sheets.Sender{Name: req.SenderName, Email: req.SenderEmail}
	if sender.Name == "" {
		sender.Name = cfg.User.Name
	}
	if sender.Email == "" {
		sender.Email = cfg.User.Email
	}

	payload := sheets.BuildPayload(req.JobDescription, req.CoverLetter, sender, cfg.Sheets.SheetName, s.now())
	err := s.sheets.Send(r.Context(), payload, cfg.Sheets.ScriptURL, cfg.Sheets.AccessToken)
	s.metrics.RecordBusinessMetric(r.Context(), observability.MetricSheetLogged, err == nil,
		attribute.Bool("authenticated", cfg.Sheets.AccessToken != ""))
	if err != nil {
		failSpan(span, err, "sheets")
		writeAppError(w, "Failed to log to sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) historyListHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.stores.Artifacts.List(r.Context())
	if err != nil {
		writeAppError(w, "Failed to list history", err)
		return
	}
	if items == nil {
		items = []types.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) historyGetHandler(w http.ResponseWriter, r *http.Request) {
	item, err := s.stores.Artifacts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, "History item not available", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) historyDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.stores.Artifacts.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeAppError(w, "Failed to delete history item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
