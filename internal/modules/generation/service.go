package generation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/modules/credits"
	"github.com/summate/core/internal/modules/summary"
	"github.com/summate/core/internal/pkg/cache"
)

var (
	ErrUnauthenticated  = errors.New("user not authenticated")
	ErrEmptyInput       = errors.New("no text to summarize")
	ErrModelUnavailable = errors.New("model unavailable")
)

// modelTimeout bounds one model call. A provider that hangs past it costs
// the user nothing; the reservation is refunded.
const modelTimeout = 60 * time.Second

// Upload describes a file already staged on disk by the handler.
type Upload struct {
	Path string
	Name string
}

// Result is the outcome of one paid generation.
type Result struct {
	Summary          string `json:"summary"`
	OriginalText     string `json:"originalText"`
	FileName         string `json:"fileName,omitempty"`
	FileType         string `json:"fileType"`
	WordCount        int    `json:"wordCount"`
	RemainingCredits int    `json:"remainingCredits"`
	Message          string `json:"message"`
}

// Service runs the credit-metered generation pipeline.
type Service struct {
	ledger *credits.Ledger
	model  Model
	cache  *cache.Tier
	logger *zap.Logger
}

func NewService(ledger *credits.Ledger, model Model, tier *cache.Tier, logger *zap.Logger) *Service {
	if model == nil {
		model = unconfiguredModel{}
	}
	return &Service{ledger: ledger, model: model, cache: tier, logger: logger}
}

// unconfiguredModel stands in when no provider is configured, so a
// misconfigured deployment fails the request instead of the process.
type unconfiguredModel struct{}

func (unconfiguredModel) Complete(context.Context, string) (string, error) {
	return "", errors.New("no ai provider configured")
}

// Generate reserves a credit, resolves the input text, calls the model and
// settles the reservation. Every failure after the reservation refunds it.
func (s *Service) Generate(ctx context.Context, userID, prompt, text string, upload *Upload) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}

	remaining, err := s.ledger.Reserve(userID)
	if err != nil {
		return nil, err
	}

	fileName := ""
	fileType := models.SourceText
	if upload != nil {
		defer func() {
			if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("remove uploaded file failed",
					zap.String("path", upload.Path),
					zap.Error(err))
			}
		}()

		extracted, err := ExtractText(upload.Path, upload.Name)
		if err != nil {
			s.ledger.Settle(userID, false)
			return nil, err
		}
		text = extracted
		fileName = upload.Name
		fileType = models.SourceFile
	}

	if strings.TrimSpace(text) == "" {
		s.ledger.Settle(userID, false)
		return nil, ErrEmptyInput
	}

	if strings.TrimSpace(prompt) == "" {
		prompt = models.DefaultPrompt
	}

	modelCtx, cancel := context.WithTimeout(ctx, modelTimeout)
	defer cancel()

	generated, err := s.model.Complete(modelCtx, prompt+"\n\n"+text)
	if err != nil {
		s.ledger.Settle(userID, false)
		s.logger.Error("model call failed", zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	s.ledger.Settle(userID, true)

	// Generated text is new content the user may save next; stale listing
	// entries from a concurrent write would mask it.
	s.cache.DeletePrefix(ctx, summary.ListingPrefix)

	return &Result{
		Summary:          generated,
		OriginalText:     text,
		FileName:         fileName,
		FileType:         fileType,
		WordCount:        summary.CountWords(text),
		RemainingCredits: remaining,
		Message:          "Summary generated successfully",
	}, nil
}
