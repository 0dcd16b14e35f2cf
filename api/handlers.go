package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/Rahi-padwal/linkRecall/ingest"
	"github.com/Rahi-padwal/linkRecall/pkg/embeddings"
	"github.com/Rahi-padwal/linkRecall/pkg/link"
	"github.com/Rahi-padwal/linkRecall/pkg/storage"
)

// MaxTitleLength caps a submitted title, in characters.
const MaxTitleLength = 200

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateLinkRequest is the POST /links body.
type CreateLinkRequest struct {
	OriginalURL      string   `json:"originalUrl"`
	Title            *string  `json:"title,omitempty"`
	UserID           string   `json:"userId,omitempty"`
	Summary          *string  `json:"summary,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	RawExtractedText *string  `json:"rawExtractedText,omitempty"`
}

// ListLinksResponse is the GET /links body.
type ListLinksResponse struct {
	Links []*link.Link `json:"links"`
	Count int          `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateLink saves a link and queues its embedding.
func (s *Server) handleCreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if err := validateCreate(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	created, err := s.config.Saver.Create(c.Context(), ingest.Request{
		OriginalURL:      req.OriginalURL,
		Title:            req.Title,
		Summary:          req.Summary,
		Keywords:         req.Keywords,
		RawExtractedText: req.RawExtractedText,
		UserID:           req.UserID,
	})
	if err != nil {
		return s.fail(c, "failed to save link", err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// handleListLinks returns the user's links newest first.
func (s *Server) handleListLinks(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if err := validateUserID(userID, true); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	links, err := s.config.Searcher.List(c.Context(), userID)
	if err != nil {
		return s.fail(c, "failed to list links", err)
	}
	if links == nil {
		links = []*link.Link{}
	}

	return c.JSON(ListLinksResponse{Links: links, Count: len(links)})
}

// handleSearchLinks handles GET /links/search.
// Query parameters:
//   - q (required): the search query text
//   - userId (required): the user whose links are searched
func (s *Server) handleSearchLinks(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "q parameter is required",
		})
	}

	userID := c.Query("userId")
	if err := validateUserID(userID, true); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := s.config.Searcher.Search(c.Context(), query, userID)
	if err != nil {
		return s.fail(c, "search failed", err)
	}

	return c.JSON(output)
}

// handleStats returns the embedding pool counters.
func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.config.Stats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "embedding pool is not configured",
		})
	}
	return c.JSON(s.config.Stats.Stats())
}

// fail maps err onto a status code and logs server-side failures.
func (s *Server) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error(msg, "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}

func statusFor(err error) int {
	var ownerNotFound storage.OwnerNotFoundError
	var linkNotFound storage.LinkNotFoundError
	switch {
	case errors.Is(err, ingest.ErrOwnerRequired):
		return fiber.StatusBadRequest
	case errors.As(err, &ownerNotFound), errors.As(err, &linkNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, embeddings.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, embeddings.ErrMalformed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func validateCreate(req CreateLinkRequest) error {
	if err := link.ValidateURL("originalUrl", req.OriginalURL); err != nil {
		return err
	}
	if req.Title != nil && utf8.RuneCountInString(*req.Title) > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	return validateUserID(req.UserID, false)
}

func validateUserID(id string, required bool) error {
	if id == "" && required {
		return errors.New("userId parameter is required")
	}
	return link.ValidateUserID("userId", id)
}
