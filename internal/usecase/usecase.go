// Package usecase implements the link shortening operations on top of a link repository.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/internal/shortcode"
)

// ErrMaxRetriesExceeded is returned when every generated code collided with an existing one.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating code")

const maxRetries = 5

const targetURLValidationTag = "required,url"

type linkRepository interface {
	Save(ctx context.Context, code, targetURL string, createdAt time.Time) (*entity.Link, error)
	RetrieveAll(ctx context.Context) ([]*entity.Link, error)
	RetrieveByCode(ctx context.Context, code string) (*entity.Link, error)
	RecordClick(ctx context.Context, code string, clickedAt time.Time) (*entity.Link, error)
	Remove(ctx context.Context, code string) error
}

type LinkUseCase struct {
	codeLength int
	linkRepo   linkRepository
	validate   *validator.Validate
	now        func() time.Time
}

func NewLinkUseCase(linkRepo linkRepository) *LinkUseCase {
	return &LinkUseCase{
		codeLength: shortcode.DefaultLength,
		linkRepo:   linkRepo,
		validate:   validator.New(),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// CreateLink stores a link to targetURL under code. An empty code asks for a
// generated one; collisions of generated codes are retried a bounded number of times.
// Surrounding whitespace of targetURL is not part of the stored URL.
func (uc *LinkUseCase) CreateLink(ctx context.Context, targetURL, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.CreateLink"

	targetURL = strings.TrimSpace(targetURL)

	if err := uc.validate.Var(targetURL, targetURLValidationTag); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, entity.ErrInvalidTargetURL, err)
	}

	if code != "" {
		if err := uc.validate.Var(code, shortcode.ValidationTag); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, entity.ErrInvalidCode, err)
		}
		if shortcode.IsReserved(code) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrReservedCode)
		}

		link, err := uc.linkRepo.Save(ctx, code, targetURL, uc.now())
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	for i := 0; i < maxRetries; i++ {
		code, err := shortcode.Generate(uc.codeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate code: %w", op, err)
		}

		link, err := uc.linkRepo.Save(ctx, code, targetURL, uc.now())
		if err != nil {
			if errors.Is(err, entity.ErrCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *LinkUseCase) ListLinks(ctx context.Context) ([]*entity.Link, error) {
	const op = "usecase.LinkUseCase.ListLinks"

	links, err := uc.linkRepo.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

func (uc *LinkUseCase) GetLink(ctx context.Context, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLink"

	link, err := uc.linkRepo.RetrieveByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) DeleteLink(ctx context.Context, code string) error {
	const op = "usecase.LinkUseCase.DeleteLink"

	if err := uc.linkRepo.Remove(ctx, code); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// ResolveCode counts a click on the link and returns it with the updated statistics.
// The link is not modified when the code is unknown.
func (uc *LinkUseCase) ResolveCode(ctx context.Context, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.ResolveCode"

	link, err := uc.linkRepo.RecordClick(ctx, code, uc.now())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve code: %w", op, err)
	}

	return link, nil
}
