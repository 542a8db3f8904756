package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"decide/internal/census/dataset"
	"decide/internal/census/ldapimport"
	"decide/internal/census/models"
	"decide/internal/platform/metrics"
	"decide/internal/platform/middleware"
	id "decide/pkg/domain"
	dErrors "decide/pkg/domain-errors"
	"decide/pkg/platform/httputil"
)

// DefaultMaxImportBytes caps uploaded census files.
const DefaultMaxImportBytes = 10 << 20

// Service defines the census operations exposed over HTTP.
type Service interface {
	AddVoters(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error)
	RemoveVoters(ctx context.Context, votingID id.VotingID, voterIDs []id.VoterID) (int, error)
	ListVoters(ctx context.Context, votingID id.VotingID) ([]id.VoterID, error)
	GetEntry(ctx context.Context, votingID id.VotingID, voterID id.VoterID) (*models.Entry, error)
	ReuseRoll(ctx context.Context, sourceVotingID, targetVotingID id.VotingID) (int, error)
	ImportFile(ctx context.Context, format string, r io.Reader) (*models.ImportResult, error)
	ImportUsernames(ctx context.Context, votingID id.VotingID, usernames []string) (*models.ImportResult, error)
	BulkExport(ctx context.Context, filter models.Filter, format string) ([]byte, error)
}

// GroupDirectory resolves a directory group into usernames.
type GroupDirectory interface {
	Members(ctx context.Context, group string) ([]string, error)
}

// Handler serves the /census endpoints.
type Handler struct {
	census         Service
	directory      GroupDirectory
	logger         *slog.Logger
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	maxImportBytes int64
}

type Option func(*Handler)

// WithDirectory enables LDAP group import.
func WithDirectory(d GroupDirectory) Option {
	return func(h *Handler) {
		h.directory = d
	}
}

func WithMaxImportBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxImportBytes = n
		}
	}
}

func New(
	census Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	opts ...Option,
) *Handler {
	h := &Handler{
		census:         census,
		logger:         logger,
		metrics:        metrics,
		jwtValidator:   jwtValidator,
		maxImportBytes: DefaultMaxImportBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the census routes under /census. Reads need a valid token;
// mutations and exports also need the staff capability.
func (h *Handler) Register(r chi.Router) {
	censusRouter := chi.NewRouter()
	censusRouter.Use(middleware.Recovery(h.logger))
	censusRouter.Use(middleware.RequestID)
	censusRouter.Use(middleware.ClientMetadata)
	censusRouter.Use(middleware.Logger(h.logger))
	censusRouter.Use(middleware.Latency(h.metrics))
	censusRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	censusRouter.Get("/", h.handleListVoters)
	censusRouter.Get("/{voting_id}/", h.handleGetEntry)

	censusRouter.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireStaff(h.logger))
		staff.Post("/", h.handleCreate)
		staff.Delete("/{voting_id}/", h.handleRemove)
		staff.Post("/reuse", h.handleReuse)
		staff.Post("/import", h.handleImport)
		staff.Post("/import/ldap", h.handleImportLDAP)
		staff.Get("/export/{format}", h.handleExport)
		staff.Get("/export/{format}/voting/{voting_id}", h.handleExport)
		staff.Get("/export/{format}/voter/{voter_id}", h.handleExport)
	})

	r.Mount("/census", censusRouter)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateCensusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid create census request")
		return
	}

	added, err := h.census.AddVoters(ctx, id.VotingID(req.VotingID), models.VoterIDs(req.Voters))
	if err != nil {
		h.writeError(ctx, w, err, "failed to create census")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.CreateCensusResponse{Message: "Census created", Added: added})
}

func (h *Handler) handleListVoters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	votingID, err := id.ParseVotingID(r.URL.Query().Get("voting_id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid voting_id")
		return
	}
	voters, err := h.census.ListVoters(ctx, votingID)
	if err != nil {
		h.writeError(ctx, w, err, "failed to list voters")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ListVotersResponse{Voters: voters})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	votingID, err := id.ParseVotingID(chi.URLParam(r, "voting_id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid voting_id")
		return
	}
	var req models.RemoveVotersRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid remove voters request")
		return
	}

	if _, err := h.census.RemoveVoters(ctx, votingID, models.VoterIDs(req.Voters)); err != nil {
		h.writeError(ctx, w, err, "failed to remove voters")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetEntry answers 401 for voters outside the roll, which voting
// booths treat as "not allowed to vote here".
func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	votingID, err := id.ParseVotingID(chi.URLParam(r, "voting_id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid voting_id")
		return
	}
	voterID, err := id.ParseVoterID(r.URL.Query().Get("voter_id"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid voter_id")
		return
	}

	entry, err := h.census.GetEntry(ctx, votingID, voterID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
				Error:            "invalid_voter",
				ErrorDescription: "Invalid voter",
			})
			return
		}
		h.writeError(ctx, w, err, "failed to check census entry")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entryResponse{
		Message:  "Valid voter",
		VotingID: entry.VotingID,
		VoterID:  entry.VoterID,
	})
}

func (h *Handler) handleReuse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.ReuseRollRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid reuse request")
		return
	}

	added, err := h.census.ReuseRoll(ctx, id.VotingID(req.SourceVotingID), id.VotingID(req.TargetVotingID))
	if err != nil {
		h.writeError(ctx, w, err, "failed to reuse census")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ReuseRollResponse{Added: added})
}

// handleImport accepts either a raw file body or a multipart form with a
// "file" field. The format comes from ?format=, then the uploaded file's
// extension, then defaults to csv.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImportBytes)

	format := r.URL.Query().Get("format")
	var body io.Reader = r.Body

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				h.writeTooLarge(ctx, w)
				return
			}
			h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "multipart upload must include a file field"), "invalid census upload")
			return
		}
		defer file.Close()
		body = file
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(header.Filename), ".")
		}
	}

	result, err := h.census.ImportFile(ctx, format, body)
	if err != nil {
		if isTooLarge(err) {
			h.writeTooLarge(ctx, w)
			return
		}
		h.writeError(ctx, w, err, "failed to import census")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleImportLDAP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.directory == nil {
		httputil.WriteJSON(w, http.StatusNotImplemented, httputil.ErrorResponse{
			Error:            "not_implemented",
			ErrorDescription: "LDAP import is not configured",
		})
		return
	}

	var req models.LDAPImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, err, "invalid ldap import request")
		return
	}

	usernames, err := h.directory.Members(ctx, req.Group)
	if err != nil {
		if errors.Is(err, ldapimport.ErrGroupNotFound) {
			h.writeError(ctx, w, dErrors.New(dErrors.CodeNotFound, "group not found"), "ldap group not found")
			return
		}
		h.writeError(ctx, w, dErrors.Wrap(err, dErrors.CodeInternal, "directory lookup failed"), "failed to read ldap group")
		return
	}

	result, err := h.census.ImportUsernames(ctx, id.VotingID(req.VotingID), usernames)
	if err != nil {
		h.writeError(ctx, w, err, "failed to import ldap group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := models.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.writeError(ctx, w, err, "invalid export format")
		return
	}

	var filter models.Filter
	if raw := chi.URLParam(r, "voting_id"); raw != "" {
		votingID, err := id.ParseVotingID(raw)
		if err != nil {
			h.writeError(ctx, w, err, "invalid voting_id")
			return
		}
		filter = models.ByVoting(votingID)
	}
	if raw := chi.URLParam(r, "voter_id"); raw != "" {
		voterID, err := id.ParseVoterID(raw)
		if err != nil {
			h.writeError(ctx, w, err, "invalid voter_id")
			return
		}
		filter = models.ByVoter(voterID)
	}

	data, err := h.census.BulkExport(ctx, filter, string(format))
	if err != nil {
		h.writeError(ctx, w, err, "failed to export census")
		return
	}

	w.Header().Set("Content-Type", dataset.ContentType(format))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dataset.Filename(format)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	requestID := middleware.GetRequestID(ctx)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) writeTooLarge(ctx context.Context, w http.ResponseWriter) {
	h.logger.WarnContext(ctx, "census upload too large",
		"request_id", middleware.GetRequestID(ctx),
		"limit_bytes", h.maxImportBytes,
	)
	httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
		Error:            "request_too_large",
		ErrorDescription: "census file exceeds the upload limit",
	})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
